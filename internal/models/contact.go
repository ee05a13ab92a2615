package models

import "time"

// ContactStatus tracks where an inquiry sits in the follow-up pipeline.
type ContactStatus string

const (
	ContactStatusNew        ContactStatus = "new"
	ContactStatusContacted  ContactStatus = "contacted"
	ContactStatusInProgress ContactStatus = "in-progress"
	ContactStatusCompleted  ContactStatus = "completed"
)

// StatusFilterAll is the dashboard's "no status filter" value. It is never stored.
const StatusFilterAll = "all"

// ContactStatuses lists every valid status in pipeline order.
var ContactStatuses = []ContactStatus{
	ContactStatusNew,
	ContactStatusContacted,
	ContactStatusInProgress,
	ContactStatusCompleted,
}

// Valid reports whether s is one of the fixed statuses.
func (s ContactStatus) Valid() bool {
	for _, known := range ContactStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Position is the role the requester holds at their school.
type Position string

const (
	PositionHeadteacher       Position = "Headteacher"
	PositionDeputyHeadteacher Position = "Deputy Headteacher"
	PositionTeacher           Position = "Teacher"
	PositionProprietor        Position = "Proprietor"
	PositionAdministrator     Position = "Administrator"
	PositionParent            Position = "Parent"
	PositionOther             Position = "Other"
)

// Positions lists the accepted positions as offered by the lead form.
var Positions = []Position{
	PositionHeadteacher,
	PositionDeputyHeadteacher,
	PositionTeacher,
	PositionProprietor,
	PositionAdministrator,
	PositionParent,
	PositionOther,
}

// Contact is one prospective-customer inquiry stored in the contacts table.
type Contact struct {
	ID         string        `db:"id" json:"id"`
	Name       string        `db:"name" json:"name"`
	School     string        `db:"school" json:"school"`
	Position   Position      `db:"position" json:"position"`
	Email      string        `db:"email" json:"email"`
	Phone      string        `db:"phone" json:"phone"`
	Students   *int          `db:"students" json:"students,omitempty"`
	Message    *string       `db:"message" json:"message,omitempty"`
	Status     ContactStatus `db:"status" json:"status"`
	AdminNotes *string       `db:"admin_notes" json:"adminNotes,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updatedAt"`
}

// ContactSubmission is the public lead form payload.
type ContactSubmission struct {
	Name     string   `json:"name" validate:"required,max=200"`
	School   string   `json:"school" validate:"required,max=200"`
	Position Position `json:"position" validate:"required,oneof='Headteacher' 'Deputy Headteacher' 'Teacher' 'Proprietor' 'Administrator' 'Parent' 'Other'"`
	Email    string   `json:"email" validate:"required,email,max=254"`
	Phone    string   `json:"phone" validate:"required,max=40,phone"`
	Students *int     `json:"students,omitempty" validate:"omitempty,min=0,max=100000"`
	Message  string   `json:"message,omitempty" validate:"max=5000"`
}

// ContactUpdate carries the only fields an administrator may change.
type ContactUpdate struct {
	Status     *ContactStatus `json:"status,omitempty"`
	AdminNotes *string        `json:"adminNotes,omitempty"`
}

// Empty reports whether the update carries no change at all.
func (u ContactUpdate) Empty() bool {
	return u.Status == nil && u.AdminNotes == nil
}

// ContactFilter captures listing criteria.
type ContactFilter struct {
	Status *ContactStatus
	Search string
	Page   int
	Limit  int
}

// ContactStats aggregates contact counts by status.
type ContactStats struct {
	Total         int `db:"total" json:"total"`
	New           int `db:"new" json:"new"`
	Contacted     int `db:"contacted" json:"contacted"`
	InProgress    int `db:"in_progress" json:"inProgress"`
	Completed     int `db:"completed" json:"completed"`
	LastSevenDays int `db:"last_seven_days" json:"lastSevenDays"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination derives the page count; an empty result still has one page.
func NewPagination(page, limit, total int) Pagination {
	pages := 1
	if limit > 0 && total > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
