package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRole distinguishes console operators.
type AdminRole string

const (
	RoleSuperAdmin AdminRole = "superadmin"
	RoleAdmin      AdminRole = "admin"
)

// Admin is an operator account stored in the admins table.
type Admin struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	Role         AdminRole  `db:"role" json:"role"`
	Active       bool       `db:"active" json:"-"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"-"`
}

// LoginRequest holds credentials for authenticating an administrator.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and the authenticated administrator.
type LoginResponse struct {
	Token string `json:"token"`
	Admin Admin  `json:"admin"`
}

// JWTClaims represents the JWT payload for admin access tokens.
type JWTClaims struct {
	AdminID string    `json:"admin_id"`
	Role    AdminRole `json:"role"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	jwt.RegisteredClaims
}
