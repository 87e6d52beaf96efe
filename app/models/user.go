package models

import (
	"strings"
	"time"
)

// Permission names stored in Role.Permissions as a comma separated list
const (
	PermissionAll     = "all"
	PermissionPOS     = "pos"
	PermissionSales   = "sales"
	PermissionReports = "reports"
)

// Role groups a set of permissions ("admin", "kasir", "executive")
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;unique" json:"name"`
	Permissions string    `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// Grants reports whether the role carries perm, either directly or through "all".
func (r *Role) Grants(perm string) bool {
	for _, p := range strings.Split(r.Permissions, ",") {
		p = strings.TrimSpace(p)
		if p == PermissionAll || p == perm {
			return true
		}
	}
	return false
}

// Outlet represents a physical store location
type Outlet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a person allowed to log into the POS
type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Username           string     `gorm:"not null;unique" json:"username"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	RoleID             uint       `gorm:"not null" json:"role_id"`
	FullName           string     `json:"full_name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	OutletID           *uint      `json:"outlet_id,omitempty"`
	IsActive           bool       `gorm:"not null" json:"is_active"`
	MustChangePassword bool       `gorm:"not null" json:"must_change_password"`
	CreatedAt          time.Time  `json:"created_at"`
	LastLogin          *time.Time `json:"last_login,omitempty"`
}
