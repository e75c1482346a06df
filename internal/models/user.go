package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"` // Never expose in JSON
	Name         string     `db:"name" json:"name"`
	Roles        Roles      `db:"roles" json:"roles"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Summary is the public projection embedded in other resources.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Name: u.Name}
}

// UserSummary is what other users may see about an account.
type UserSummary struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Username string    `db:"username" json:"username"`
	Name     string    `db:"name" json:"name"`
}

// RegisterRequest is used for self-service sign up.
type RegisterRequest struct {
	Username string   `json:"username" validate:"required,username"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6,max=72"`
	Name     string   `json:"name" validate:"omitempty,max=100"`
	Roles    []string `json:"roles" validate:"omitempty,dive,oneof=user farmer moderator admin"`
}

// LoginRequest is used for email/password login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is used by the account owner.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

// ProfileUpdateRequest is used for updating the caller's own profile.
type ProfileUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// RolesUpdateRequest is used by admins to replace a user's roles.
type RolesUpdateRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=user farmer moderator admin"`
}

// StatusUpdateRequest is used by admins to (de)activate an account.
type StatusUpdateRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
