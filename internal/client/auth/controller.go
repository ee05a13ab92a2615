package auth

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/contact-console/internal/dto"
	"github.com/noah-isme/contact-console/internal/models"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
)

// State is where the session lifecycle currently sits.
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateVerifying       State = "verifying"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

type authAPI interface {
	Login(ctx context.Context, email, password string) (*dto.LoginResponse, error)
	Me(ctx context.Context) (*models.Admin, error)
}

// SessionStore is the durable side of the session. *session.Store satisfies it.
type SessionStore interface {
	AuthToken() string
	Principal() *models.Admin
	SetSession(token string, admin models.Admin) error
	SetPrincipal(admin models.Admin) error
	ClearSession() error
}

// Controller owns the session state machine.
type Controller struct {
	api    authAPI
	store  SessionStore
	logger *zap.Logger

	mu        sync.RWMutex
	state     State
	principal *models.Admin
	err       error
	listeners map[int]func(State)
	nextID    int
}

// NewController constructs a Controller in the uninitialized state.
func NewController(api authAPI, store SessionStore, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		api:       api,
		store:     store,
		logger:    logger,
		state:     StateUninitialized,
		listeners: make(map[int]func(State)),
	}
}

// Init restores a persisted session, trusting it only after the server confirms it.
func (c *Controller) Init(ctx context.Context) State {
	token := c.store.AuthToken()
	stored := c.store.Principal()
	if token == "" || stored == nil {
		c.clear(nil)
		return c.State()
	}

	c.transition(StateVerifying, stored, nil)
	if err := c.verify(ctx); err != nil {
		c.logger.Info("stored session rejected", zap.Error(err))
	}
	return c.State()
}

// RefreshSession re-verifies the current token; failure logs out.
func (c *Controller) RefreshSession(ctx context.Context) error {
	if c.store.AuthToken() == "" {
		c.clear(nil)
		return appErrors.Clone(appErrors.ErrAuthRequired, "")
	}
	return c.verify(ctx)
}

func (c *Controller) verify(ctx context.Context) error {
	admin, err := c.api.Me(ctx)
	if err != nil {
		c.clear(nil)
		return err
	}
	if err := c.store.SetPrincipal(*admin); err != nil {
		c.logger.Warn("failed to persist verified admin", zap.Error(err))
	}
	c.transition(StateAuthenticated, admin, nil)
	return nil
}

// Login authenticates and persists the new session. On failure Err carries
// the server's message; an already verified session is left in place,
// otherwise the controller ends up unauthenticated.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		err := appErrors.Clone(appErrors.ErrValidation, "Email and password are required")
		c.loginFailed(err)
		return err
	}

	res, err := c.api.Login(ctx, email, password)
	if err != nil {
		c.loginFailed(err)
		return err
	}
	if err := c.store.SetSession(res.Token, res.Admin); err != nil {
		wrapped := appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not save the session")
		c.loginFailed(wrapped)
		return wrapped
	}

	admin := res.Admin
	c.transition(StateAuthenticated, &admin, nil)
	c.logger.Info("logged in", zap.String("admin_id", admin.ID))
	return nil
}

// Logout drops the session. Calling it repeatedly is harmless.
func (c *Controller) Logout() {
	c.clear(nil)
}

// HandleError logs out when err says the session is no longer usable and
// reports whether it did.
func (c *Controller) HandleError(err error) bool {
	if !appErrors.ShouldLogout(err) {
		return false
	}
	c.clear(err)
	return true
}

func (c *Controller) loginFailed(err error) {
	c.mu.Lock()
	if c.state == StateAuthenticated {
		c.err = err
		c.mu.Unlock()
		c.logger.Info("login failed, keeping current session", zap.Error(err))
		return
	}
	c.mu.Unlock()
	c.clear(err)
}

func (c *Controller) clear(cause error) {
	if err := c.store.ClearSession(); err != nil {
		c.logger.Warn("failed to clear stored session", zap.Error(err))
	}
	c.transition(StateUnauthenticated, nil, cause)
}

func (c *Controller) transition(state State, principal *models.Admin, err error) {
	c.mu.Lock()
	changed := c.state != state
	c.state = state
	c.principal = principal
	c.err = err
	listeners := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(state)
	}
}

// Subscribe registers fn for state changes and returns its unsubscribe func.
func (c *Controller) Subscribe(fn func(State)) func() {
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

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Principal returns a copy of the signed-in administrator, or nil.
func (c *Controller) Principal() *models.Admin {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.principal == nil {
		return nil
	}
	p := *c.principal
	return &p
}

// Err is the last login failure or the failure that ended the session, if any.
func (c *Controller) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// IsAuthenticated reports whether the session has been verified.
func (c *Controller) IsAuthenticated() bool {
	return c.State() == StateAuthenticated
}
