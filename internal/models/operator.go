package models

import "time"

// Role represents operator roles in the system
type Role string

const (
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// TokenRequest represents a login request for an API token
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse represents a successful login response
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	Role      Role   `json:"role"`
}

// Claims represents JWT claims
type Claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// Operator is an account allowed to request API tokens.
type Operator struct {
	Username     string    `bson:"_id" json:"username"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	IsActive     bool      `bson:"is_active" json:"is_active"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
