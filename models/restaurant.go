package models

import "time"

// Restaurant is one tenant. Every table, order and menu row is scoped to a
// restaurant id; nothing crosses tenants.
type Restaurant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(100);unique;not null" json:"slug"`
	Address   string    `gorm:"type:text" json:"address"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// UserSession carries per-login state that is not part of identity: which
// restaurant the user is currently operating as. Keyed by the session id
// embedded in the JWT so a reload resumes the same restaurant.
type UserSession struct {
	ID                 string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID             uint      `gorm:"not null;index" json:"user_id"`
	ActiveRestaurantID *uint     `json:"active_restaurant_id,omitempty"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}
