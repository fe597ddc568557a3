package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/services"
	"github.com/tableside/tableside-app/utils"
)

type DashboardController struct {
	DB       *gorm.DB
	Identity *services.IdentityService
}

func NewDashboardController(db *gorm.DB, identity *services.IdentityService) *DashboardController {
	return &DashboardController{DB: db, Identity: identity}
}

// GetDashboardStats -> table status counts and open order counts for the
// staff dashboard header.
func (dc *DashboardController) GetDashboardStats(c *gin.Context) {
	ident, err := resolveIdentity(c, dc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	restaurantID := ident.Membership.RestaurantID

	var available, reserved, occupied int64
	dc.DB.Model(&models.Table{}).Where("restaurant_id = ? AND status = ?", restaurantID, models.TableAvailable).Count(&available)
	dc.DB.Model(&models.Table{}).Where("restaurant_id = ? AND status = ?", restaurantID, models.TableReserved).Count(&reserved)
	dc.DB.Model(&models.Table{}).Where("restaurant_id = ? AND status = ?", restaurantID, models.TableOccupied).Count(&occupied)

	var openOrders int64
	dc.DB.Model(&models.Order{}).
		Where("restaurant_id = ? AND status NOT IN ?", restaurantID, []string{models.OrderCompleted, models.OrderCancelled}).
		Count(&openOrders)

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", gin.H{
		"tables": gin.H{
			"available": available,
			"reserved":  reserved,
			"occupied":  occupied,
			"total":     available + reserved + occupied,
		},
		"open_orders": openOrders,
	})
}
