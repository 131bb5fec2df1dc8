package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole defines the platform-wide role returned by the identity provider.
type UserRole string

const (
	// UserRoleMember is the default role.
	UserRoleMember UserRole = "member"
	// UserRoleOrganizer may create and run workshops.
	UserRoleOrganizer UserRole = "organizer"
	// UserRoleAdmin has global administrative privileges.
	UserRoleAdmin UserRole = "admin"
)

// User represents an account on the platform.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"size:40;uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Role      UserRole       `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Bio       string         `gorm:"type:text" json:"bio"`
	Avatar    string         `json:"avatar"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the user holds the global admin role.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
