package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/contact-console/internal/models"
)

const contactColumns = `id, name, school, position, email, phone, students, message, status, admin_notes, created_at, updated_at`

// ContactRepository provides database access for lead records.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository creates a new instance of ContactRepository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts a new contact. ID, status and timestamps are filled when empty.
func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	if contact.Status == "" {
		contact.Status = models.ContactStatusNew
	}
	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = contact.CreatedAt

	const query = `INSERT INTO contacts (` + contactColumns + `) VALUES (:id, :name, :school, :position, :email, :phone, :students, :message, :status, :admin_notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, contact); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// FindByID returns a contact by identifier.
func (r *ContactRepository) FindByID(ctx context.Context, id string) (*models.Contact, error) {
	const query = `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 LIMIT 1`
	var contact models.Contact
	if err := r.db.GetContext(ctx, &contact, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find contact by id: %w", err)
	}
	return &contact, nil
}

// likeEscaper makes user search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// List returns contacts matching the filter, newest first, with the total count.
func (r *ContactRepository) List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, int, error) {
	baseQuery := `FROM contacts WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(`(LOWER(name) LIKE $%[1]d ESCAPE '\' OR LOWER(school) LIKE $%[1]d ESCAPE '\' OR LOWER(email) LIKE $%[1]d ESCAPE '\')`, n))
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(search))+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := (page - 1) * limit

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", contactColumns, baseQuery, limit, offset)

	contacts := []models.Contact{}
	if err := r.db.SelectContext(ctx, &contacts, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	return contacts, total, nil
}

// Update applies status and/or admin notes and returns the stored record.
func (r *ContactRepository) Update(ctx context.Context, id string, update models.ContactUpdate, updatedAt time.Time) (*models.Contact, error) {
	var sets []string
	var args []interface{}

	if update.Status != nil {
		args = append(args, *update.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if update.AdminNotes != nil {
		args = append(args, *update.AdminNotes)
		sets = append(sets, fmt.Sprintf("admin_notes = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("update contact: no fields to update")
	}

	args = append(args, updatedAt)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf("UPDATE contacts SET %s WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), len(args), contactColumns)

	var contact models.Contact
	if err := r.db.GetContext(ctx, &contact, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return &contact, nil
}

// Stats counts contacts per status plus those created since the given instant.
func (r *ContactRepository) Stats(ctx context.Context, since time.Time) (*models.ContactStats, error) {
	const query = `SELECT
	COUNT(*) AS total,
	COUNT(*) FILTER (WHERE status = 'new') AS new,
	COUNT(*) FILTER (WHERE status = 'contacted') AS contacted,
	COUNT(*) FILTER (WHERE status = 'in-progress') AS in_progress,
	COUNT(*) FILTER (WHERE status = 'completed') AS completed,
	COUNT(*) FILTER (WHERE created_at >= $1) AS last_seven_days
FROM contacts`

	var stats models.ContactStats
	if err := r.db.GetContext(ctx, &stats, query, since); err != nil {
		return nil, fmt.Errorf("contact stats: %w", err)
	}
	return &stats, nil
}
