package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleLibrarian UserRole = "librarian"
	UserRoleMember    UserRole = "member"
)

// Permission is a dotted permission code, e.g. "catalog.can_mark_returned".
type Permission string

const (
	PermissionMarkReturned Permission = "catalog.can_mark_returned"
	PermissionEditCatalog  Permission = "catalog.can_edit_catalog"
)

var rolePermissions = map[UserRole][]Permission{
	UserRoleAdmin:     {PermissionMarkReturned, PermissionEditCatalog},
	UserRoleLibrarian: {PermissionMarkReturned, PermissionEditCatalog},
	UserRoleMember:    {},
}

// IsValid reports whether r is a known role.
func (r UserRole) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// HasPermission reports whether the role grants perm.
func (r UserRole) HasPermission(perm Permission) bool {
	for _, p := range rolePermissions[r] {
		if p == perm {
			return true
		}
	}
	return false
}

type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Username         string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email            string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash     string         `gorm:"size:100" json:"-"`
	Role             UserRole       `gorm:"size:20;default:'member'" json:"role"`
	TokenHash        string         `gorm:"index;size:64" json:"-"`
	TokenCreatedAt   *time.Time     `json:"-"`
	FailedLoginCount int            `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time     `json:"-"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
