// Package dashboard holds the administrator view state: the filtered contact
// page, the pipeline counters and the open detail record.
package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/contact-console/internal/client/leads"
	"github.com/noah-isme/contact-console/internal/models"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
)

// DefaultSearchDelay is how long typing must pause before a search fires.
const DefaultSearchDelay = 400 * time.Millisecond

// LeadService is the subset of *leads.Service the dashboard uses.
type LeadService interface {
	List(ctx context.Context, params leads.ListParams) (*leads.ListResult, error)
	GetStats(ctx context.Context) (*models.ContactStats, error)
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	UpdateStatus(ctx context.Context, id string, changes leads.Changes) (*models.Contact, error)
}

// SessionGuard ends the session when an error says it is no longer valid.
// *auth.Controller satisfies it.
type SessionGuard interface {
	HandleError(err error) bool
}

// Config tunes a Controller. StatusFilter, Search and Page seed the first fetch.
type Config struct {
	PageSize     int
	SearchDelay  time.Duration
	Logger       *zap.Logger
	StatusFilter string
	Search       string
	Page         int
}

// State is a copy of what the dashboard shows.
type State struct {
	StatusFilter string
	Search       string
	SearchInput  string
	Page         int
	TotalPages   int
	Total        int
	Contacts     []models.Contact
	Stats        *models.ContactStats
	Loading      bool
	Err          error
	// Selected is the record in the open detail view, nil when closed.
	Selected *models.Contact
}

// Controller coordinates fetches and view state.
type Controller struct {
	svc       LeadService
	guard     SessionGuard
	pageSize  int
	logger    *zap.Logger
	debouncer *Debouncer

	mu        sync.Mutex
	state     State
	seq       uint64
	baseCtx   context.Context
	listeners map[int]func(State)
	nextID    int
}

// New constructs a Controller; by default it shows page 1 of all statuses.
func New(svc LeadService, guard SessionGuard, cfg Config) *Controller {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.SearchDelay <= 0 {
		cfg.SearchDelay = DefaultSearchDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.StatusFilter = strings.TrimSpace(cfg.StatusFilter); cfg.StatusFilter == "" {
		cfg.StatusFilter = models.StatusFilterAll
	}
	if cfg.Page < 1 {
		cfg.Page = 1
	}
	search := strings.TrimSpace(cfg.Search)
	return &Controller{
		svc:       svc,
		guard:     guard,
		pageSize:  cfg.PageSize,
		logger:    cfg.Logger,
		debouncer: NewDebouncer(cfg.SearchDelay),
		state: State{
			StatusFilter: cfg.StatusFilter,
			Search:       search,
			SearchInput:  search,
			Page:         cfg.Page,
			TotalPages:   max(1, cfg.Page),
		},
		baseCtx:   context.Background(),
		listeners: make(map[int]func(State)),
	}
}

// Mount performs the initial fetch. ctx also scopes later debounced searches.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()
	return c.fetch(ctx, true)
}

// Refresh refetches the current page.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx, true)
}

// Close stops any pending search.
func (c *Controller) Close() {
	c.debouncer.Stop()
}

// SetStatusFilter changes the filter, resets to page 1 and fetches.
func (c *Controller) SetStatusFilter(ctx context.Context, status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		status = models.StatusFilterAll
	}
	c.mu.Lock()
	c.state.StatusFilter = status
	c.state.Page = 1
	c.mu.Unlock()
	return c.fetch(ctx, true)
}

// SetSearchInput records typed text and schedules the search after the quiet period.
func (c *Controller) SetSearchInput(text string) {
	c.mu.Lock()
	c.state.SearchInput = text
	ctx := c.baseCtx
	c.mu.Unlock()
	c.notify()

	c.debouncer.Schedule(func() {
		if err := c.ApplySearch(ctx, text); err != nil {
			c.logger.Debug("debounced search failed", zap.Error(err))
		}
	})
}

// ApplySearch sets the search immediately, resets to page 1 and fetches.
func (c *Controller) ApplySearch(ctx context.Context, text string) error {
	c.debouncer.Cancel()
	c.mu.Lock()
	c.state.Search = strings.TrimSpace(text)
	c.state.SearchInput = text
	c.state.Page = 1
	c.mu.Unlock()
	return c.fetch(ctx, true)
}

// SetPage moves to page n, clamped to the known range. Staying put fetches nothing.
func (c *Controller) SetPage(ctx context.Context, n int) error {
	c.mu.Lock()
	target := clampPage(n, c.state.TotalPages)
	if target == c.state.Page {
		c.mu.Unlock()
		return nil
	}
	c.state.Page = target
	c.mu.Unlock()
	return c.fetch(ctx, true)
}

// NextPage advances one page when possible.
func (c *Controller) NextPage(ctx context.Context) error {
	c.mu.Lock()
	page := c.state.Page + 1
	c.mu.Unlock()
	return c.SetPage(ctx, page)
}

// PrevPage goes back one page when possible.
func (c *Controller) PrevPage(ctx context.Context) error {
	c.mu.Lock()
	page := c.state.Page - 1
	c.mu.Unlock()
	return c.SetPage(ctx, page)
}

// HasPrev reports whether a previous page exists.
func (c *Controller) HasPrev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Page > 1
}

// HasNext reports whether the server has pages past the current one.
func (c *Controller) HasNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Page < c.state.TotalPages
}

// PageWindow is the page-number strip for the current state.
func (c *Controller) PageWindow() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return PageWindow(c.state.Page, c.state.TotalPages)
}

// ViewContact loads one record into the detail view.
func (c *Controller) ViewContact(ctx context.Context, id string) error {
	contact, err := c.svc.GetByID(ctx, id)
	if err != nil {
		c.fail(err)
		return err
	}
	c.mu.Lock()
	c.state.Selected = contact
	c.state.Err = nil
	c.mu.Unlock()
	c.notify()
	return nil
}

// CloseDetail closes the detail view.
func (c *Controller) CloseDetail() {
	c.mu.Lock()
	c.state.Selected = nil
	c.mu.Unlock()
	c.notify()
}

// UpdateContact saves changes, closes the detail view and refetches once.
// The list is never patched locally.
func (c *Controller) UpdateContact(ctx context.Context, id string, changes leads.Changes) error {
	if _, err := c.svc.UpdateStatus(ctx, id, changes); err != nil {
		c.fail(err)
		return err
	}
	c.mu.Lock()
	c.state.Selected = nil
	c.mu.Unlock()
	return c.fetch(ctx, true)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	if s.Contacts != nil {
		s.Contacts = append([]models.Contact(nil), s.Contacts...)
	}
	if s.Stats != nil {
		stats := *s.Stats
		s.Stats = &stats
	}
	if s.Selected != nil {
		selected := *s.Selected
		s.Selected = &selected
	}
	return s
}

// OnChange registers fn for state updates and returns its unsubscribe func.
func (c *Controller) OnChange(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	snapshot := c.snapshotLocked()
	listeners := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

// fetch loads stats and the current page together. Results of a fetch that
// was overtaken by a newer one are dropped.
func (c *Controller) fetch(ctx context.Context, clampRetry bool) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	params := leads.ListParams{
		Page:   c.state.Page,
		Limit:  c.pageSize,
		Status: c.state.StatusFilter,
		Search: c.state.Search,
	}
	c.state.Loading = true
	c.mu.Unlock()
	c.notify()

	var (
		stats *models.ContactStats
		page  *leads.ListResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = c.svc.GetStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		page, err = c.svc.List(gctx, params)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("discarding stale dashboard fetch", zap.Uint64("seq", seq))
		return nil
	}
	c.state.Loading = false
	if err != nil {
		c.mu.Unlock()
		c.fail(err)
		return err
	}

	c.state.Err = nil
	c.state.Stats = stats
	c.state.Contacts = page.Contacts
	c.state.Total = page.Pagination.Total
	c.state.TotalPages = max(1, page.Pagination.Pages)
	refetch := false
	if c.state.Page > c.state.TotalPages {
		c.state.Page = c.state.TotalPages
		refetch = clampRetry
	}
	c.mu.Unlock()
	c.notify()

	if refetch {
		return c.fetch(ctx, false)
	}
	return nil
}

// fail records err; session-ending errors also wipe every displayed record.
func (c *Controller) fail(err error) {
	loggedOut := appErrors.ShouldLogout(err)

	c.mu.Lock()
	c.state.Loading = false
	c.state.Err = err
	if loggedOut {
		c.state.Contacts = nil
		c.state.Stats = nil
		c.state.Selected = nil
		c.state.Total = 0
		c.state.TotalPages = 1
		c.state.Page = 1
	}
	c.mu.Unlock()

	if loggedOut && c.guard != nil {
		c.guard.HandleError(err)
	}
	c.notify()
}
