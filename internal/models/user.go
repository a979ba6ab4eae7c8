package models

import (
	"time"

	"github.com/diabetecam/diabetecam/auth"
	"github.com/diabetecam/diabetecam/gate"
)

// User is a clinic account. Permissions are stored as comma-joined page names.
type User struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time          `json:"created_at"`
	Username     string             `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string             `gorm:"column:password;size:255;not null" json:"-"`
	Role         gate.Role          `gorm:"size:20;not null;index" json:"role"`
	FullName     string             `gorm:"column:full_name;size:255;not null" json:"full_name"`
	Permissions  gate.PermissionSet `gorm:"type:text" json:"permissions"`
}

func (User) TableName() string { return "utilisateurs" }

// SessionUser is the view of u kept in the login session.
func (u *User) SessionUser() *auth.User {
	perms := u.Permissions
	if perms == nil {
		perms = gate.PermissionSet{}
	}
	return &auth.User{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Role:        u.Role,
		Permissions: perms,
	}
}
