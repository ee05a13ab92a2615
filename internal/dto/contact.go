package dto

import (
	"time"

	"github.com/noah-isme/contact-console/internal/models"
)

// ContactResponse wraps a single contact.
type ContactResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Contact *models.Contact `json:"contact"`
}

// ContactListResponse is the body of GET /contact.
type ContactListResponse struct {
	Success    bool              `json:"success"`
	Contacts   []models.Contact  `json:"contacts"`
	Pagination models.Pagination `json:"pagination"`
}

// ContactStatsResponse is the body of GET /contact/stats.
type ContactStatsResponse struct {
	Success bool                `json:"success"`
	Stats   models.ContactStats `json:"stats"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
