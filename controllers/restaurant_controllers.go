package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tableside/tableside-app/apperrors"
	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/services"
	"github.com/tableside/tableside-app/utils"
)

type RestaurantController struct {
	Identity *services.IdentityService
}

func NewRestaurantController(identity *services.IdentityService) *RestaurantController {
	return &RestaurantController{Identity: identity}
}

// CreateRestaurant -> onboarding flow for a user with no memberships yet.
// The creator becomes the restaurant's manager.
func (rc *RestaurantController) CreateRestaurant(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		Slug    string `json:"slug" binding:"required"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	userVal, exists := c.Get("user")
	if !exists {
		utils.RespondAppError(c, apperrors.ErrUnauthorized)
		return
	}
	user := userVal.(*models.User)

	restaurant, err := rc.Identity.CreateRestaurant(user, req.Name, req.Slug, req.Address)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Restaurant created", restaurant)
}

// ListMyRestaurants -> every restaurant the principal belongs to.
func (rc *RestaurantController) ListMyRestaurants(c *gin.Context) {
	userVal, exists := c.Get("user")
	if !exists {
		utils.RespondAppError(c, apperrors.ErrUnauthorized)
		return
	}
	user := userVal.(*models.User)
	utils.RespondJSON(c, http.StatusOK, "List of restaurants", user.Memberships)
}

// SetActiveRestaurant -> switches which restaurant this session operates
// as. Fails with NotAMember for restaurants outside the principal's
// memberships.
func (rc *RestaurantController) SetActiveRestaurant(c *gin.Context) {
	restaurantID, err := strconv.ParseUint(c.Param("restaurant_id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	userVal, exists := c.Get("user")
	if !exists {
		utils.RespondAppError(c, apperrors.ErrUnauthorized)
		return
	}
	user := userVal.(*models.User)
	sessionID := c.GetString("session_id")

	if err := rc.Identity.SetActiveTenant(user, sessionID, uint(restaurantID)); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active restaurant updated", gin.H{
		"restaurant_id": restaurantID,
	})
}
