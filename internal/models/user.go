package models

import "time"

// Role is the coarse permission level of a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// User represents a user in the system.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:150;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         Role   `gorm:"size:50;not null;default:'client';index"`
	IsStaff      bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanManage reports whether the user may use the management screens.
func (u User) CanManage() bool {
	return u.IsStaff || u.Role == RoleAdmin
}

// UserPatch is a partial update of a user's permissions.
type UserPatch struct {
	Role    *Role
	IsStaff *bool
}

// Apply copies the set fields onto u.
func (p UserPatch) Apply(u *User) {
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsStaff != nil {
		u.IsStaff = *p.IsStaff
	}
}
