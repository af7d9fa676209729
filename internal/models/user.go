package models

import "time"

// Role distinguishes parents, who manage money, from children, who save and spend it.
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleParent || r == RoleChild
}

// User represents a family member. Children always have a ParentID.
type User struct {
	Base
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	DisplayName string     `gorm:"not null" json:"display_name"`
	Role        Role       `gorm:"not null" json:"role"`
	ParentID    *string    `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}
