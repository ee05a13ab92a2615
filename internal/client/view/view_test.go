package view

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/contact-console/internal/client/dashboard"
	"github.com/noah-isme/contact-console/internal/models"
)

func TestContactsTable(t *testing.T) {
	out := Contacts([]models.Contact{
		{ID: "c-1", Name: "Amélie Koné", School: "Lycée Saint-Michel", Position: models.PositionHeadteacher, Email: "amelie@example.fr", Status: models.ContactStatusNew, CreatedAt: time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)},
	}, time.UTC)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Amélie Koné")
	assert.Contains(t, out, "c-1")
	assert.Contains(t, out, "03 Feb 2026")
	assert.Contains(t, out, "new")
}

func TestEmptyContacts(t *testing.T) {
	assert.Contains(t, Contacts(nil, nil), "No contacts found")
}

func TestPagerMarksCurrentPage(t *testing.T) {
	out := Pager(3, 9, []int{1, 2, 3, 4, 5})
	assert.Contains(t, out, "[3]")
	assert.Contains(t, out, "page 3 of 9")
	assert.NotContains(t, out, "[2]")
}

func TestDashboardShowsFilterAndError(t *testing.T) {
	out := Dashboard(dashboard.State{
		StatusFilter: "new",
		Search:       "Ama",
		Page:         1,
		TotalPages:   2,
		Total:        12,
		Stats:        &models.ContactStats{Total: 12, New: 12},
		Err:          errors.New("Network error. Please check your connection."),
	}, []int{1, 2}, time.UTC)

	assert.Contains(t, out, "status: new")
	assert.Contains(t, out, `search: "Ama"`)
	assert.Contains(t, out, "12 result(s)")
	assert.Contains(t, out, "Last 7 days")
	assert.Contains(t, out, "Network error")
}

func TestContactDetail(t *testing.T) {
	students := 300
	notes := "Rappeler lundi"
	out := Contact(&models.Contact{ID: "c-9", Name: "Kofi", Phone: "0244000000", Students: &students, AdminNotes: &notes, Status: models.ContactStatusInProgress}, time.UTC)
	assert.Contains(t, out, "Kofi")
	assert.Contains(t, out, "300")
	assert.Contains(t, out, "Rappeler lundi")
	assert.Contains(t, out, "in-progress")
	assert.Empty(t, Contact(nil, nil))
}

func TestAdmin(t *testing.T) {
	assert.Contains(t, Admin(nil), "Not signed in")
	out := Admin(&models.Admin{Name: "Root", Email: "root@example.com", Role: models.RoleSuperAdmin})
	assert.Contains(t, out, "root@example.com")
	assert.Contains(t, out, "superadmin")
}
