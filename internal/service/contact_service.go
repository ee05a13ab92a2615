package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/contact-console/internal/models"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
)

const (
	statsCacheKey      = "stats"
	defaultPageSize    = 10
	defaultMaxPageSize = 100
	maxListPage        = 100000
	recentWindow       = 7 * 24 * time.Hour
)

type contactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
	FindByID(ctx context.Context, id string) (*models.Contact, error)
	List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, int, error)
	Update(ctx context.Context, id string, update models.ContactUpdate, updatedAt time.Time) (*models.Contact, error)
	Stats(ctx context.Context, since time.Time) (*models.ContactStats, error)
}

// ContactServiceConfig tunes listing limits and stats caching.
type ContactServiceConfig struct {
	MaxPageSize   int
	StatsCacheTTL time.Duration
}

// ContactService implements lead intake and the administrator pipeline views.
type ContactService struct {
	repo      contactRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    ContactServiceConfig
	now       func() time.Time
}

// NewContactService constructs a ContactService. cache and metrics may be nil.
func NewContactService(repo contactRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ContactServiceConfig) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if err := validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return models.ValidPhone(fl.Field().String())
	}); err != nil {
		logger.Error("failed to register phone validation", zap.Error(err))
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = defaultMaxPageSize
	}
	return &ContactService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates and stores a public lead form submission.
func (s *ContactService) Submit(ctx context.Context, req models.ContactSubmission) (*models.Contact, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.School = strings.TrimSpace(req.School)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Message = strings.TrimSpace(req.Message)

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}

	contact := &models.Contact{
		Name:     req.Name,
		School:   req.School,
		Position: req.Position,
		Email:    req.Email,
		Phone:    req.Phone,
		Students: req.Students,
		Status:   models.ContactStatusNew,
	}
	if req.Message != "" {
		msg := req.Message
		contact.Message = &msg
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save contact")
	}

	s.invalidateStats(ctx)
	s.metrics.RecordSubmission(string(contact.Position))
	s.logger.Info("contact submitted", zap.String("contact_id", contact.ID), zap.String("position", string(contact.Position)))
	return contact, nil
}

// List returns one page of contacts newest first together with pagination metadata.
func (s *ContactService) List(ctx context.Context, filter models.ContactFilter) ([]models.Contact, models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Page > maxListPage {
		filter.Page = maxListPage
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > s.config.MaxPageSize {
		filter.Limit = s.config.MaxPageSize
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrValidation, "Invalid status filter")
	}
	filter.Search = strings.TrimSpace(filter.Search)

	contacts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contacts")
	}
	return contacts, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get loads one contact.
func (s *ContactService) Get(ctx context.Context, id string) (*models.Contact, error) {
	contact, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Contact not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contact")
	}
	return contact, nil
}

// Update changes the status and/or admin notes of a contact.
func (s *ContactService) Update(ctx context.Context, id string, update models.ContactUpdate) (*models.Contact, error) {
	if update.Status != nil && !update.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid status")
	}
	if update.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "No valid updates provided")
	}

	contact, err := s.repo.Update(ctx, id, update, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Contact not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update contact")
	}

	s.invalidateStats(ctx)
	if update.Status != nil {
		s.metrics.RecordStatusChange(string(*update.Status))
	}
	return contact, nil
}

// Stats aggregates the pipeline counters, served from cache when enabled.
func (s *ContactService) Stats(ctx context.Context) (*models.ContactStats, error) {
	var cached models.ContactStats
	if hit, err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	stats, err := s.repo.Stats(ctx, s.now().Add(-recentWindow))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contact stats")
	}

	_ = s.cache.Set(ctx, statsCacheKey, stats, s.config.StatsCacheTTL)
	return stats, nil
}

func (s *ContactService) invalidateStats(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, statsCacheKey)
}

// validationMessage turns validator failures into the sentence list shown to users.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.ErrValidation.Message
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email", "phone", "oneof":
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		case "max":
			messages = append(messages, fmt.Sprintf("%s is too long", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(messages, ", ")
}
