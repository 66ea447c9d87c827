package model

import (
	"time"
)

// AccountRole enumerates the account roles.
type AccountRole string

const (
	RoleUser  AccountRole = "user"
	RoleAdmin AccountRole = "admin"
)

// ParseAccountRole normalizes a stored role string. Unknown values fall back
// to RoleUser.
func ParseAccountRole(value string) AccountRole {
	if AccountRole(value) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Account represents a login identity (NPM-based, no password).
type Account struct {
	ID        int         `json:"id"`
	NPM       string      `json:"npm"`
	Role      AccountRole `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CreateAccountRequest is the payload for creating an account directly.
type CreateAccountRequest struct {
	NPM  string      `json:"npm" binding:"required,min=1,max=32"`
	Role AccountRole `json:"role" binding:"required,oneof=user admin"`
}

// UpdateAccountRoleRequest is the payload for changing an account's role.
type UpdateAccountRoleRequest struct {
	Role AccountRole `json:"role" binding:"required,oneof=user admin"`
}

// LoginRequest is the payload for NPM-based login.
type LoginRequest struct {
	NPM     string `json:"npm" binding:"required,max=32"`
	AsAdmin bool   `json:"as_admin"`
}
