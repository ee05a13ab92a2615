package dto

import "github.com/noah-isme/contact-console/internal/models"

// LoginResponse is the body of POST /auth/login.
type LoginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	Admin   models.Admin `json:"admin"`
}

// MeResponse is the body of GET /auth/me.
type MeResponse struct {
	Success bool         `json:"success"`
	Admin   models.Admin `json:"admin"`
}
