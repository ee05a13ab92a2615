package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/contact-console/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var contactRowColumns = []string{"id", "name", "school", "position", "email", "phone", "students", "message", "status", "admin_notes", "created_at", "updated_at"}

func TestContactCreateDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRepository(db)

	mock.ExpectExec("INSERT INTO contacts").WillReturnResult(sqlmock.NewResult(1, 1))

	contact := &models.Contact{Name: "Ama", School: "St. Mary's", Position: models.PositionHeadteacher, Email: "ama@example.com", Phone: "0591038729"}
	require.NoError(t, repo.Create(context.Background(), contact))

	assert.NotEmpty(t, contact.ID)
	assert.Equal(t, models.ContactStatusNew, contact.Status)
	assert.False(t, contact.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactListWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(contactRowColumns).
		AddRow("c1", "Ama", "St. Mary's", "Headteacher", "ama@example.com", "0591038729", nil, nil, "new", nil, now, now)

	status := models.ContactStatusNew
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + contactColumns + " FROM contacts WHERE 1=1 AND status = $1 AND (LOWER(name) LIKE $2 ESCAPE '\\' OR LOWER(school) LIKE $2 ESCAPE '\\' OR LOWER(email) LIKE $2 ESCAPE '\\') ORDER BY created_at DESC LIMIT 10 OFFSET 10")).
		WithArgs(status, "%ama%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contacts WHERE 1=1 AND status = $1")).
		WithArgs(status, "%ama%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	contacts, total, err := repo.List(context.Background(), models.ContactFilter{Status: &status, Search: " Ama ", Page: 2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, models.PositionHeadteacher, contacts[0].Position)
	assert.Nil(t, contacts[0].Students)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactListSearchMatchesWildcardsLiterally(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRepository(db)

	pattern := `%50\%\_off\\x%`
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + contactColumns + " FROM contacts WHERE 1=1 AND (LOWER(name) LIKE $1 ESCAPE")).
		WithArgs(pattern).
		WillReturnRows(sqlmock.NewRows(contactRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contacts WHERE 1=1 AND (LOWER(name) LIKE $1")).
		WithArgs(pattern).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.ContactFilter{Search: `50%_OFF\x`})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactListDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + contactColumns + " FROM contacts WHERE 1=1 ORDER BY created_at DESC LIMIT 10 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(contactRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contacts WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	contacts, total, err := repo.List(context.Background(), models.ContactFilter{})
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactUpdateReturnsRecord(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRepository(db)

	now := time.Now()
	status := models.ContactStatusContacted
	notes := "called back"
	rows := sqlmock.NewRows(contactRowColumns).
		AddRow("c1", "Ama", "St. Mary's", "Headteacher", "ama@example.com", "0591038729", 120, "hello", "contacted", notes, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE contacts SET status = $1, admin_notes = $2, updated_at = $3 WHERE id = $4 RETURNING " + contactColumns)).
		WithArgs(status, notes, now, "c1").
		WillReturnRows(rows)

	contact, err := repo.Update(context.Background(), "c1", models.ContactUpdate{Status: &status, AdminNotes: &notes}, now)
	require.NoError(t, err)
	assert.Equal(t, models.ContactStatusContacted, contact.Status)
	require.NotNil(t, contact.Students)
	assert.Equal(t, 120, *contact.Students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRepository(db)

	notes := "x"
	mock.ExpectQuery("UPDATE contacts SET admin_notes").WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "missing", models.ContactUpdate{AdminNotes: &notes}, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestContactUpdateRequiresFields(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRepository(db)

	_, err := repo.Update(context.Background(), "c1", models.ContactUpdate{}, time.Now())
	assert.Error(t, err)
}

func TestContactStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactRepository(db)

	since := time.Now().Add(-7 * 24 * time.Hour)
	mock.ExpectQuery("SELECT\\s+COUNT\\(\\*\\) AS total").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"total", "new", "contacted", "in_progress", "completed", "last_seven_days"}).AddRow(9, 4, 2, 2, 1, 3))

	stats, err := repo.Stats(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, models.ContactStats{Total: 9, New: 4, Contacted: 2, InProgress: 2, Completed: 1, LastSevenDays: 3}, *stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
