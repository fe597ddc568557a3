package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tableside/tableside-app/apperrors"
	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/services"
	"github.com/tableside/tableside-app/utils"
)

type MenuController struct {
	DB       *gorm.DB
	Identity *services.IdentityService
}

func NewMenuController(db *gorm.DB, identity *services.IdentityService) *MenuController {
	return &MenuController{DB: db, Identity: identity}
}

// GetAllMenus -> the active restaurant's catalog for staff screens.
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	ident, err := resolveIdentity(c, mc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var menus []models.MenuItem
	if err := mc.DB.Where("restaurant_id = ?", ident.Membership.RestaurantID).Order("name").Find(&menus).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", menus)
}

// CreateMenu -> add one item to the catalog.
func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req struct {
		Name        string  `json:"name" binding:"required"`
		Price       float64 `json:"price" binding:"required,gt=0"`
		Description string  `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ident, err := resolveIdentity(c, mc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	item := models.MenuItem{
		RestaurantID: ident.Membership.RestaurantID,
		Name:         req.Name,
		Price:        req.Price,
		Description:  req.Description,
		Available:    true,
	}
	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu created", item)
}

// UpdateMenu -> price, availability or description changes.
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	var req struct {
		Name        *string  `json:"name"`
		Price       *float64 `json:"price"`
		Description *string  `json:"description"`
		Available   *bool    `json:"available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ident, err := resolveIdentity(c, mc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	menuID, err := parseID(c, "menu_id")
	if err != nil {
		return
	}

	var item models.MenuItem
	err = mc.DB.Where("restaurant_id = ?", ident.Membership.RestaurantID).First(&item, menuID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondAppError(c, apperrors.ErrNotFound.WithMessage("menu item not found"))
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", item)
}

// DeleteMenu -> remove an item from the catalog. Orders keep their own
// snapshots, so past orders are unaffected.
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	ident, err := resolveIdentity(c, mc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	menuID, err := parseID(c, "menu_id")
	if err != nil {
		return
	}

	result := mc.DB.Where("restaurant_id = ?", ident.Membership.RestaurantID).Delete(&models.MenuItem{}, menuID)
	if result.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondAppError(c, apperrors.ErrNotFound.WithMessage("menu item not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted", gin.H{"menu_id": menuID})
}
