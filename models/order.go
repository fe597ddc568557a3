package models

import "time"

const (
	OrderPending   = "pending"
	OrderPreparing = "preparing"
	OrderServed    = "served"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// orderTransitions is the full order state machine. Terminal statuses have
// no entry.
var orderTransitions = map[string][]string{
	OrderPending:   {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderServed, OrderCancelled},
	OrderServed:    {OrderCompleted},
}

// CanTransition reports whether an order may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalOrderStatus reports whether the status ends the order's life.
func IsTerminalOrderStatus(status string) bool {
	return status == OrderCompleted || status == OrderCancelled
}

// Order is the committed snapshot of one cart session. Items never change
// after creation; only Status and its history move.
type Order struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	RestaurantID  uint               `gorm:"not null;index" json:"restaurant_id"`
	TableID       uint               `gorm:"not null;index" json:"table_id"`
	Table         Table              `gorm:"foreignKey:TableID" json:"table"`
	Status        string             `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Total         float64            `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	Items         []OrderItem        `gorm:"foreignKey:OrderID" json:"items"`
	StatusHistory []OrderStatusEvent `gorm:"foreignKey:OrderID" json:"status_history"`
	CreatedAt     time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"not null" json:"updated_at"`
}

// OrderItem keeps the contributor's display name so the kitchen and the
// receipt can attribute each line to whoever ordered it.
type OrderItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrderID         uint      `gorm:"not null;index" json:"order_id"`
	MenuItemID      uint      `gorm:"not null" json:"menu_item_id"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	Quantity        int       `gorm:"not null" json:"quantity"`
	UnitPrice       float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	ContributorID   string    `gorm:"type:varchar(64)" json:"contributor_id"`
	ContributorName string    `gorm:"type:varchar(255)" json:"contributor_name"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}

type OrderStatusEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Status    string    `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
