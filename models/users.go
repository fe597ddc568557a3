package models

import "time"

type User struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(255);not null" json:"name"`
	Email       string       `gorm:"type:varchar(255);unique;not null" json:"email"`
	Password    string       `gorm:"type:varchar(255);not null" json:"-"`
	Role        string       `gorm:"type:varchar(50);not null;default:'user'" json:"role"`
	Memberships []Membership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

// Membership links a user to one restaurant they may operate in. The role
// here may differ from the user's global role (e.g. admin globally, manager
// inside a franchise branch).
type Membership struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"not null;index;uniqueIndex:idx_user_restaurant" json:"user_id"`
	RestaurantID uint       `gorm:"not null;uniqueIndex:idx_user_restaurant" json:"restaurant_id"`
	Restaurant   Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant"`
	DisplayName  string     `gorm:"type:varchar(255)" json:"display_name"`
	Role         string     `gorm:"type:varchar(50);not null;default:'staff'" json:"role"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
}

// RoleIn returns the role the user holds inside the given restaurant,
// falling back to the global role when the membership has none.
func (u *User) RoleIn(restaurantID uint) string {
	for _, m := range u.Memberships {
		if m.RestaurantID == restaurantID && m.Role != "" {
			return m.Role
		}
	}
	return u.Role
}

// MemberOf reports whether the user belongs to the restaurant.
func (u *User) MemberOf(restaurantID uint) bool {
	for _, m := range u.Memberships {
		if m.RestaurantID == restaurantID {
			return true
		}
	}
	return false
}
