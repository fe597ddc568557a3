package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tableside/tableside-app/services"
	"github.com/tableside/tableside-app/utils"
)

type OrderController struct {
	Orders   *services.OrderService
	Identity *services.IdentityService
}

func NewOrderController(orders *services.OrderService, identity *services.IdentityService) *OrderController {
	return &OrderController{Orders: orders, Identity: identity}
}

// GetAllOrders -> the restaurant's orders, optionally ?status= filtered.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	ident, err := resolveIdentity(c, oc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	orders, err := oc.Orders.List(ident.Membership.RestaurantID, c.Query("status"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> detail with items and status history.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	ident, err := resolveIdentity(c, oc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	orderID, err := parseID(c, "order_id")
	if err != nil {
		return
	}

	order, err := oc.Orders.Get(ident.Membership.RestaurantID, orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrderStatus -> advances or cancels an order.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ident, err := resolveIdentity(c, oc.Identity)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	orderID, err := parseID(c, "order_id")
	if err != nil {
		return
	}

	order, err := oc.Orders.UpdateStatus(ident.Actor, ident.Membership.RestaurantID, orderID, body.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// GetTableOrders -> a table's open orders; the guest receipt view.
func (oc *OrderController) GetTableOrders(c *gin.Context) {
	tableID, err := parseID(c, "table_id")
	if err != nil {
		return
	}

	orders, err := oc.Orders.ListOpenByTable(tableID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Open orders for table", orders)
}
