package controllers

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/tableside/tableside-app/services"
	"github.com/tableside/tableside-app/utils"
)

type TableController struct {
	Tables   *services.TableService
	Identity *services.IdentityService
}

func NewTableController(tables *services.TableService, identity *services.IdentityService) *TableController {
	return &TableController{Tables: tables, Identity: identity}
}

// CreateTable -> adds a new table to the active restaurant.
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Number   string `json:"number" binding:"required"`
		Capacity int    `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ident, err := resolveIdentity(c, tc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	table, err := tc.Tables.Create(ident.Actor, ident.Membership.RestaurantID, req.Number, req.Capacity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> every table in the active restaurant.
func (tc *TableController) GetAllTables(c *gin.Context) {
	ident, err := resolveIdentity(c, tc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	tables, err := tc.Tables.List(ident.Membership.RestaurantID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID -> detail for one table.
func (tc *TableController) GetTableByID(c *gin.Context) {
	ident, err := resolveIdentity(c, tc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}
	table, err := tc.Tables.Get(ident.Membership.RestaurantID, tableID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTableStatus -> explicit staff transition (seat, reserve, free).
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ident, err := resolveIdentity(c, tc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}

	table, err := tc.Tables.Transition(ident.Actor, ident.Membership.RestaurantID, tableID, body.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

// ResetTable -> frees an occupied table and discards its pending cart.
func (tc *TableController) ResetTable(c *gin.Context) {
	ident, err := resolveIdentity(c, tc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}

	table, err := tc.Tables.Reset(ident.Actor, ident.Membership.RestaurantID, tableID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table reset", table)
}

// DeleteTable -> removes a table that is not occupied.
func (tc *TableController) DeleteTable(c *gin.Context) {
	ident, err := resolveIdentity(c, tc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}

	if err := tc.Tables.Delete(ident.Actor, ident.Membership.RestaurantID, tableID); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": tableID})
}

// GetTableHistory -> recorded status transitions for audit display.
func (tc *TableController) GetTableHistory(c *gin.Context) {
	ident, err := resolveIdentity(c, tc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}

	events, err := tc.Tables.History(ident.Membership.RestaurantID, tableID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table status history", events)
}

// GetTableQR -> PNG QR code of the table's deep link, for printing.
func (tc *TableController) GetTableQR(c *gin.Context) {
	ident, err := resolveIdentity(c, tc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}
	if _, err := tc.Tables.Get(ident.Membership.RestaurantID, tableID); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	link := fmt.Sprintf("%s/tables/%d/scan", baseURL, tableID)

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// parseID reads a numeric path param and responds with 400 itself on
// garbage input.
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, err
	}
	return uint(id), nil
}
