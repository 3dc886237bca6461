package model

import "time"

// Role values stored in users.role.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User mirrors the `users` table. TokenVersion and ForceLogout together
// drive session invalidation: a credential is only valid while its embedded
// version equals TokenVersion, ForceLogout is false and the user is active.
//
// TokenVersion starts at 1 and is bumped on every login, logout, password
// change and administrative deactivation. ForceLogout is set by admin action
// and cleared only by a fresh login.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	TokenVersion int        `json:"token_version"`
	ForceLogout  bool       `json:"-"`
	LastDeviceID *string    `json:"last_device_id,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
