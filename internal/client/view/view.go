// Package view renders console output for the admin commands.
package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/noah-isme/contact-console/internal/client/dashboard"
	"github.com/noah-isme/contact-console/internal/models"
)

var (
	colorAccent  = lipgloss.Color("#1D9EA3")
	colorMuted   = lipgloss.Color("#6B7B83")
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	labelStyle   = lipgloss.NewStyle().Bold(true).Width(12)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	currentPage  = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(colorAccent)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1)
)

var statusStyles = map[models.ContactStatus]lipgloss.Style{
	models.ContactStatusNew:        lipgloss.NewStyle().Foreground(colorWarning),
	models.ContactStatusContacted:  lipgloss.NewStyle().Foreground(colorAccent),
	models.ContactStatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("#8E7CC3")),
	models.ContactStatusCompleted:  lipgloss.NewStyle().Foreground(colorSuccess),
}

// Status renders a status label in its colour.
func Status(s models.ContactStatus) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(string(s))
}

// Success renders a confirmation line.
func Success(msg string) string {
	return successStyle.Render("✓ " + msg)
}

// Error renders an error line.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return errorStyle.Render("✗ " + err.Error())
}

// Title renders a heading.
func Title(s string) string {
	return titleStyle.Render(s)
}

// Stats renders the pipeline counters as a single boxed row.
func Stats(stats *models.ContactStats) string {
	if stats == nil {
		return mutedStyle.Render("No statistics available")
	}
	cells := []string{
		counter("Total", stats.Total),
		counter("New", stats.New),
		counter("Contacted", stats.Contacted),
		counter("In progress", stats.InProgress),
		counter("Completed", stats.Completed),
		counter("Last 7 days", stats.LastSevenDays),
	}
	return boxStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
}

func counter(label string, n int) string {
	return lipgloss.NewStyle().PaddingRight(3).Render(
		lipgloss.JoinVertical(lipgloss.Left, mutedStyle.Render(label), titleStyle.Render(strconv.Itoa(n))))
}

// Contacts renders one page of contacts as a table.
func Contacts(contacts []models.Contact, loc *time.Location) string {
	if len(contacts) == 0 {
		return mutedStyle.Render("No contacts found")
	}
	if loc == nil {
		loc = time.Local
	}
	rows := make([][]string, 0, len(contacts))
	for _, c := range contacts {
		rows = append(rows, []string{
			c.ID,
			c.Name,
			c.School,
			string(c.Position),
			c.Email,
			Status(c.Status),
			c.CreatedAt.In(loc).Format("02 Jan 2006"),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
		Headers("ID", "NAME", "SCHOOL", "POSITION", "EMAIL", "STATUS", "RECEIVED").
		Rows(rows...).
		String()
}

// Pager renders the page strip, e.g. "‹ 1 [2] 3 4 5 › page 2 of 9".
func Pager(page, totalPages int, window []int) string {
	var b strings.Builder
	b.WriteString(mutedStyle.Render("‹ "))
	for i, n := range window {
		if i > 0 {
			b.WriteByte(' ')
		}
		if n == page {
			b.WriteString(currentPage.Render(fmt.Sprintf("[%d]", n)))
		} else {
			b.WriteString(strconv.Itoa(n))
		}
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf(" › page %d of %d", page, totalPages)))
	return b.String()
}

// Dashboard renders the whole dashboard state.
func Dashboard(state dashboard.State, window []int, loc *time.Location) string {
	parts := []string{Stats(state.Stats)}

	filter := fmt.Sprintf("status: %s", state.StatusFilter)
	if state.Search != "" {
		filter += fmt.Sprintf("  search: %q", state.Search)
	}
	filter += fmt.Sprintf("  %d result(s)", state.Total)
	parts = append(parts, mutedStyle.Render(filter))

	if state.Loading {
		parts = append(parts, mutedStyle.Render("Loading…"))
	}
	parts = append(parts, Contacts(state.Contacts, loc), Pager(state.Page, state.TotalPages, window))
	if state.Err != nil {
		parts = append(parts, Error(state.Err))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Contact renders the detail view of one record.
func Contact(c *models.Contact, loc *time.Location) string {
	if c == nil {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	lines := []string{
		Title(c.Name),
		field("ID", c.ID),
		field("School", c.School),
		field("Position", string(c.Position)),
		field("Email", c.Email),
		field("Phone", c.Phone),
	}
	if c.Students != nil {
		lines = append(lines, field("Students", strconv.Itoa(*c.Students)))
	}
	lines = append(lines,
		field("Status", Status(c.Status)),
		field("Received", c.CreatedAt.In(loc).Format("02 Jan 2006 15:04")),
		field("Updated", c.UpdatedAt.In(loc).Format("02 Jan 2006 15:04")),
	)
	if c.Message != nil && *c.Message != "" {
		lines = append(lines, "", labelStyle.Render("Message"), *c.Message)
	}
	if c.AdminNotes != nil && *c.AdminNotes != "" {
		lines = append(lines, "", labelStyle.Render("Notes"), *c.AdminNotes)
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Admin renders the signed-in administrator.
func Admin(a *models.Admin) string {
	if a == nil {
		return mutedStyle.Render("Not signed in")
	}
	lines := []string{
		Title(a.Name),
		field("Email", a.Email),
		field("Role", string(a.Role)),
	}
	if a.LastLogin != nil {
		lines = append(lines, field("Last login", a.LastLogin.Local().Format("02 Jan 2006 15:04")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func field(label, value string) string {
	return labelStyle.Render(label) + value
}
