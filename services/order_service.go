package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tableside/tableside-app/apperrors"
	"github.com/tableside/tableside-app/auth"
	"github.com/tableside/tableside-app/live"
	"github.com/tableside/tableside-app/models"
	"github.com/tableside/tableside-app/utils"
)

// OrderService creates orders from committed carts and drives the order
// status state machine through to completion or cancellation.
type OrderService struct {
	DB     *gorm.DB
	Tables *TableService
}

func NewOrderService(db *gorm.DB, tables *TableService) *OrderService {
	return &OrderService{DB: db, Tables: tables}
}

// CreateFromCart copies the merged cart into an immutable order snapshot
// starting at pending. The line items keep each guest's display name for
// attribution on the kitchen screen and the receipt.
func (osvc *OrderService) CreateFromCart(view *MergedView, tableID, restaurantID uint) (*models.Order, error) {
	if view == nil || len(view.Contributors) == 0 {
		return nil, apperrors.ErrEmptyCart
	}

	now := time.Now()
	order := models.Order{
		RestaurantID: restaurantID,
		TableID:      tableID,
		Status:       models.OrderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, cart := range view.Contributors {
		for _, line := range cart.Lines {
			order.Items = append(order.Items, models.OrderItem{
				MenuItemID:      line.MenuItemID,
				Name:            line.ItemName,
				Quantity:        line.Quantity,
				UnitPrice:       line.UnitPrice,
				ContributorID:   cart.ContributorID,
				ContributorName: cart.ContributorName,
				CreatedAt:       now,
			})
			order.Total += line.Subtotal
		}
	}
	if len(order.Items) == 0 {
		return nil, apperrors.ErrEmptyCart
	}

	err := osvc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		event := models.OrderStatusEvent{
			OrderID:   order.ID,
			Status:    models.OrderPending,
			CreatedAt: now,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Order %d created for table %d (total %.2f)", order.ID, tableID, order.Total)
	live.BroadcastToTable(tableID, live.Message{Event: live.EventOrderCreate, Data: order})
	return &order, nil
}

// UpdateStatus moves an order along pending -> preparing -> served ->
// completed, or cancels it while still pending/preparing. Terminal statuses
// free the table if nothing else holds it.
func (osvc *OrderService) UpdateStatus(actor Actor, restaurantID, orderID uint, to string) (*models.Order, error) {
	if actor.Kind != ActorStaff || !auth.HasPermission(actor.Role, auth.PermManageOrders) {
		return nil, apperrors.ErrForbidden
	}

	order, err := osvc.Get(restaurantID, orderID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(order.Status, to) {
		if to == models.OrderCancelled {
			return nil, apperrors.ErrInvalidTransition.WithMessage("order can no longer be cancelled")
		}
		return nil, apperrors.ErrInvalidTransition
	}

	now := time.Now()
	err = osvc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Updates(map[string]interface{}{"status": to, "updated_at": now}).Error; err != nil {
			return err
		}
		event := models.OrderStatusEvent{OrderID: order.ID, Status: to, CreatedAt: now}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}
	order.Status = to
	order.UpdatedAt = now
	order.StatusHistory = append(order.StatusHistory, models.OrderStatusEvent{
		OrderID: order.ID, Status: to, CreatedAt: now,
	})

	utils.InfoLogger.Printf("Order %d status changed to %s by %s", order.ID, to, actor.auditID())
	live.BroadcastToTable(order.TableID, live.Message{Event: live.EventOrderUpdate, Data: order})

	if models.IsTerminalOrderStatus(to) {
		if err := osvc.Tables.ReleaseAfterOrder(order.TableID); err != nil {
			utils.ErrorLogger.Printf("release table %d after order %d: %v", order.TableID, order.ID, err)
		}
	}
	return order, nil
}

func (osvc *OrderService) Get(restaurantID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := osvc.DB.Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("restaurant_id = ?", restaurantID).
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound.WithMessage("order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns the restaurant's orders, optionally filtered by status.
func (osvc *OrderService) List(restaurantID uint, status string) ([]models.Order, error) {
	q := osvc.DB.Preload("Items").Where("restaurant_id = ?", restaurantID).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOpenByTable returns the table's orders not yet in a terminal status.
func (osvc *OrderService) ListOpenByTable(tableID uint) ([]models.Order, error) {
	var orders []models.Order
	err := osvc.DB.Preload("Items").
		Where("table_id = ? AND status NOT IN ?", tableID, []string{models.OrderCompleted, models.OrderCancelled}).
		Order("created_at").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
