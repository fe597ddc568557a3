package models

import "time"

// MenuItem is the priced catalog the cart validates contributions against.
// Prices are read as stable for the lifetime of a cart session.
type MenuItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;index" json:"restaurant_id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Price        float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Description  string    `gorm:"type:text" json:"description"`
	Available    bool      `gorm:"not null;default:true" json:"available"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
