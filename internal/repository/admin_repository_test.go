package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/contact-console/internal/models"
)

func TestAdminFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("a1", "admin@ecole.fr", "hash", "Claire", string(models.RoleAdmin), true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + adminColumns + " FROM admins WHERE email = $1 LIMIT 1")).
		WithArgs("admin@ecole.fr").
		WillReturnRows(rows)

	admin, err := repo.FindByEmail(context.Background(), "admin@ecole.fr")
	require.NoError(t, err)
	assert.Equal(t, "Claire", admin.Name)
	assert.True(t, admin.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery("FROM admins WHERE id").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAdminCreateAndCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM admins")).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO admins").WillReturnResult(sqlmock.NewResult(1, 1))

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)

	admin := &models.Admin{Email: "admin@ecole.fr", PasswordHash: "hash", Name: "Claire", Role: models.RoleSuperAdmin, Active: true}
	require.NoError(t, repo.Create(context.Background(), admin))
	assert.NotEmpty(t, admin.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
