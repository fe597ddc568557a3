package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/services"
	"github.com/tableside/tableside-app/utils"
)

type CartController struct {
	DB       *gorm.DB
	Carts    *services.CartService
	Orders   *services.OrderService
	Identity *services.IdentityService
}

func NewCartController(db *gorm.DB, carts *services.CartService, orders *services.OrderService, identity *services.IdentityService) *CartController {
	return &CartController{DB: db, Carts: carts, Orders: orders, Identity: identity}
}

// ScanTable -> the QR deep-link target. Issues a contributor identity for
// this table and returns the menu plus whatever cart is already pending.
func (cc *CartController) ScanTable(c *gin.Context) {
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}

	name := c.Query("name")
	if name == "" {
		name = "Guest"
	}

	contributor, view, err := cc.Carts.Join(tableID, name)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	table, err := cc.Carts.Tables.GetByID(tableID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var menu []models.MenuItem
	if err := cc.DB.Where("restaurant_id = ? AND available = ?", table.RestaurantID, true).
		Order("name").Find(&menu).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table session", gin.H{
		"table":       table,
		"contributor": contributor,
		"cart":        view,
		"menu":        menu,
	})
}

type cartWriteRequest struct {
	SessionKey      string `json:"session_key"`
	ContributorID   string `json:"contributor_id" binding:"required"`
	ContributorName string `json:"contributor_name" binding:"required"`
	MenuItemID      uint   `json:"menu_item_id" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required"`
	ClientTS        int64  `json:"client_ts" binding:"required"`
}

// AddItem -> appends one positive contribution from a guest device.
func (cc *CartController) AddItem(c *gin.Context) {
	cc.writeCart(c, false)
}

// RemoveItem -> appends a removal; the merge clamps at zero.
func (cc *CartController) RemoveItem(c *gin.Context) {
	cc.writeCart(c, true)
}

func (cc *CartController) writeCart(c *gin.Context, remove bool) {
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}

	var req cartWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	contributor := services.Contributor{
		ID:      req.ContributorID,
		Name:    req.ContributorName,
		TableID: tableID,
	}

	var view *services.MergedView
	if remove {
		view, err = cc.Carts.RemoveItem(tableID, req.SessionKey, contributor, req.MenuItemID, req.Quantity, req.ClientTS)
	} else {
		view, err = cc.Carts.AddItem(tableID, req.SessionKey, contributor, req.MenuItemID, req.Quantity, req.ClientTS)
	}
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Cart updated", view)
}

// GetCart -> the merged view; the poll fallback for screens without a
// websocket.
func (cc *CartController) GetCart(c *gin.Context) {
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}
	if _, err := cc.Carts.Tables.GetByID(tableID); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Merged cart", cc.Carts.MergedView(tableID))
}

// CommitCart -> guest-side commit: the table's pending cart becomes one
// order.
func (cc *CartController) CommitCart(c *gin.Context) {
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}

	var req struct {
		ContributorID   string `json:"contributor_id" binding:"required"`
		ContributorName string `json:"contributor_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := cc.Carts.Commit(tableID, services.GuestActor(req.ContributorID, req.ContributorName))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// CommitCartAsStaff -> staff-side commit from the dashboard.
func (cc *CartController) CommitCartAsStaff(c *gin.Context) {
	ident, err := resolveIdentity(c, cc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}
	if _, err := cc.Carts.Tables.Get(ident.Membership.RestaurantID, tableID); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	order, err := cc.Carts.Commit(tableID, ident.Actor)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}
