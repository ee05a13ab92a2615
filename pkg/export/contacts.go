package export

import (
	"strconv"
	"time"

	"github.com/noah-isme/contact-console/internal/models"
)

// Contact export column names.
const (
	ColumnName      = "Name"
	ColumnSchool    = "School"
	ColumnPosition  = "Position"
	ColumnEmail     = "Email"
	ColumnPhone     = "Phone"
	ColumnStudents  = "Students"
	ColumnStatus    = "Status"
	ColumnReceived  = "Received"
	ColumnMessage   = "Message"
	ColumnNotes     = "Admin Notes"
	ColumnCount     = "Count"
	ColumnIndicator = "Indicator"
)

// ContactHeaders is the column order used for contact exports.
var ContactHeaders = []string{
	ColumnName, ColumnSchool, ColumnPosition, ColumnEmail, ColumnPhone,
	ColumnStudents, ColumnStatus, ColumnReceived, ColumnMessage, ColumnNotes,
}

// ContactsDataset flattens contacts into export rows. Received times are shown in loc.
func ContactsDataset(contacts []models.Contact, loc *time.Location) Dataset {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([]map[string]string, 0, len(contacts))
	for _, c := range contacts {
		row := map[string]string{
			ColumnName:     c.Name,
			ColumnSchool:   c.School,
			ColumnPosition: string(c.Position),
			ColumnEmail:    c.Email,
			ColumnPhone:    c.Phone,
			ColumnStatus:   string(c.Status),
			ColumnReceived: c.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		}
		if c.Students != nil {
			row[ColumnStudents] = strconv.Itoa(*c.Students)
		}
		if c.Message != nil {
			row[ColumnMessage] = *c.Message
		}
		if c.AdminNotes != nil {
			row[ColumnNotes] = *c.AdminNotes
		}
		rows = append(rows, row)
	}
	return Dataset{Headers: ContactHeaders, Rows: rows}
}

// StatsDataset renders the pipeline counters as a two-column table.
func StatsDataset(stats models.ContactStats) Dataset {
	pairs := []struct {
		label string
		value int
	}{
		{"Total", stats.Total},
		{"New", stats.New},
		{"Contacted", stats.Contacted},
		{"In progress", stats.InProgress},
		{"Completed", stats.Completed},
		{"Last 7 days", stats.LastSevenDays},
	}
	rows := make([]map[string]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, map[string]string{ColumnIndicator: p.label, ColumnCount: strconv.Itoa(p.value)})
	}
	return Dataset{Headers: []string{ColumnIndicator, ColumnCount}, Rows: rows}
}
