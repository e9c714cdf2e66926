package models

import (
	"strings"
	"time"
)

// Operator roles. Lower order means more power.
const (
	RoleDevelopment = "development"
	RoleOwner       = "patrao"
	RoleManager     = "responsavel"
	RoleOperator    = "operario"
)

var roleOrders = map[string]int{
	RoleDevelopment: 10,
	RoleOwner:       20,
	RoleManager:     30,
	RoleOperator:    40,
}

// RoleOrder returns the rank of a role and whether the role exists.
func RoleOrder(role string) (int, bool) {
	order, ok := roleOrders[role]
	return order, ok
}

// User is a back-office operator.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Role      string    `gorm:"size:30;not null;default:'operario'" json:"role"`
	RoleOrder int       `gorm:"not null;default:40" json:"role_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeUsername lowercases and trims, usernames are stored that way.
func NormalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}
