// Package leads wraps the contact endpoints with local validation and the
// authentication checks every administrator call needs.
package leads

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/contact-console/internal/client/gateway"
	"github.com/noah-isme/contact-console/internal/dto"
	"github.com/noah-isme/contact-console/internal/models"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
)

const defaultPageSize = 10

// Requester performs gateway calls. *gateway.Gateway satisfies it.
type Requester interface {
	Request(ctx context.Context, endpoint string, opts gateway.Options) (*gateway.Response, error)
}

// SessionChecker reports whether a bearer token is held.
type SessionChecker interface {
	IsAuthenticated() bool
}

// ListParams selects one page of contacts. An empty or "all" Status means no filter.
type ListParams struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// ListResult is one page of contacts.
type ListResult struct {
	Contacts   []models.Contact
	Pagination models.Pagination
}

// Changes is an administrator edit. Unknown statuses are ignored.
type Changes struct {
	Status     string
	AdminNotes *string
}

// SubmitResult is what the public form shows after a successful submission.
type SubmitResult struct {
	Contact *models.Contact
	Message string
}

// Service exposes lead operations.
type Service struct {
	api      Requester
	session  SessionChecker
	pageSize int
	logger   *zap.Logger
}

// New constructs a Service. pageSize <= 0 means 10.
func New(api Requester, session SessionChecker, pageSize int, logger *zap.Logger) *Service {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, session: session, pageSize: pageSize, logger: logger}
}

// Submit validates the form locally and posts it to the public endpoint.
func (s *Service) Submit(ctx context.Context, form models.ContactSubmission) (*SubmitResult, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.School = strings.TrimSpace(form.School)
	form.Position = models.Position(strings.TrimSpace(string(form.Position)))
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	form.Message = strings.TrimSpace(form.Message)

	if problems := ValidateSubmission(form); len(problems) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, strings.Join(problems, ", "))
	}

	resp, err := s.api.Request(ctx, "/contact/submit", gateway.Options{Method: http.MethodPost, Body: form, Public: true})
	if err != nil {
		return nil, err
	}
	var body dto.ContactResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	return &SubmitResult{Contact: body.Contact, Message: body.Message}, nil
}

// ValidateSubmission returns one message per failed rule, in form order.
func ValidateSubmission(form models.ContactSubmission) []string {
	var problems []string
	if form.Name == "" {
		problems = append(problems, "Name is required")
	}
	if form.School == "" {
		problems = append(problems, "School is required")
	}
	if form.Position == "" {
		problems = append(problems, "Position is required")
	}
	switch {
	case form.Email == "":
		problems = append(problems, "Email is required")
	case !models.ValidEmail(form.Email):
		problems = append(problems, "Email is invalid")
	}
	switch {
	case form.Phone == "":
		problems = append(problems, "Phone is required")
	case !models.ValidPhone(form.Phone):
		problems = append(problems, "Phone is invalid")
	}
	return problems
}

// List fetches one page of contacts, newest first.
func (s *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit <= 0 {
		params.Limit = s.pageSize
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("limit", strconv.Itoa(params.Limit))
	if status := strings.TrimSpace(params.Status); status != "" && status != models.StatusFilterAll {
		query.Set("status", status)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		query.Set("search", search)
	}

	resp, err := s.api.Request(ctx, "/contact", gateway.Options{Query: query})
	if err != nil {
		return nil, err
	}
	var body dto.ContactListResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if body.Contacts == nil {
		body.Contacts = []models.Contact{}
	}
	if body.Pagination.Pages < 1 {
		body.Pagination.Pages = 1
	}
	return &ListResult{Contacts: body.Contacts, Pagination: body.Pagination}, nil
}

// GetByID fetches one contact.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	resp, err := s.api.Request(ctx, "/contact/"+url.PathEscape(id), gateway.Options{})
	if err != nil {
		return nil, err
	}
	return decodeContact(resp)
}

// UpdateStatus sends the allowed subset of changes.
func (s *Service) UpdateStatus(ctx context.Context, id string, changes Changes) (*models.Contact, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}

	var update models.ContactUpdate
	if status := models.ContactStatus(strings.TrimSpace(changes.Status)); status.Valid() {
		update.Status = &status
	} else if changes.Status != "" {
		s.logger.Debug("dropping unknown status", zap.String("status", changes.Status))
	}
	update.AdminNotes = changes.AdminNotes
	if update.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "No valid updates provided")
	}

	resp, err := s.api.Request(ctx, "/contact/"+url.PathEscape(id), gateway.Options{Method: http.MethodPatch, Body: update})
	if err != nil {
		return nil, err
	}
	return decodeContact(resp)
}

// GetStats fetches the pipeline counters.
func (s *Service) GetStats(ctx context.Context) (*models.ContactStats, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	resp, err := s.api.Request(ctx, "/contact/stats", gateway.Options{})
	if err != nil {
		return nil, err
	}
	var body dto.ContactStatsResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	return &body.Stats, nil
}

func (s *Service) requireSession() error {
	if s.session == nil || !s.session.IsAuthenticated() {
		return appErrors.Clone(appErrors.ErrAuthRequired, "")
	}
	return nil
}

func decodeContact(resp *gateway.Response) (*models.Contact, error) {
	var body dto.ContactResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if body.Contact == nil {
		return nil, appErrors.Clone(appErrors.ErrDecode, "response did not include a contact")
	}
	return body.Contact, nil
}
