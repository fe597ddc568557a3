package models

import "time"

const (
	TableAvailable = "available"
	TableReserved  = "reserved"
	TableOccupied  = "occupied"
)

type Table struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;uniqueIndex:idx_restaurant_number" json:"restaurant_id"`
	Number       string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_restaurant_number" json:"number"`
	Capacity     int       `gorm:"not null;default:4" json:"capacity"`
	Status       string    `gorm:"type:varchar(50);not null;default:'available'" json:"status"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// TableStatusEvent records every status change for audit and history
// display. ActorKind is "staff", "guest" or "system".
type TableStatusEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TableID    uint      `gorm:"not null;index" json:"table_id"`
	FromStatus string    `gorm:"type:varchar(50);not null" json:"from_status"`
	ToStatus   string    `gorm:"type:varchar(50);not null" json:"to_status"`
	ActorKind  string    `gorm:"type:varchar(20);not null" json:"actor_kind"`
	ActorID    string    `gorm:"type:varchar(64)" json:"actor_id"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}
