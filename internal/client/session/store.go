// Package session keeps the console's credential and signed-in administrator
// in durable storage and is the only place the bearer token lives.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/contact-console/internal/models"
	"github.com/noah-isme/contact-console/pkg/kvstore"
)

// Storage keys.
const (
	KeyAuthToken      = "auth_token"
	KeyAdminUser      = "admin_user"
	KeyPrivacyConsent = "privacy_consent"
)

// Subscriber registers an unauthorized hook and returns its unsubscribe func.
// *gateway.Gateway satisfies it.
type Subscriber interface {
	Subscribe(hook func()) func()
}

// Store holds the session token, the principal and the privacy consent flag.
type Store struct {
	mu      sync.RWMutex
	kv      kvstore.Store
	logger  *zap.Logger
	token   string
	admin   *models.Admin
	consent bool
}

// New builds a Store and restores whatever was persisted. A corrupt principal,
// or one stored without a token, is dropped rather than failing the console.
func New(kv kvstore.Store, logger *zap.Logger) (*Store, error) {
	if kv == nil {
		return nil, errors.New("session: nil kvstore")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{kv: kv, logger: logger}

	token, err := s.read(KeyAuthToken)
	if err != nil {
		return nil, err
	}
	s.token = string(token)

	rawAdmin, err := s.read(KeyAdminUser)
	if err != nil {
		return nil, err
	}
	switch {
	case len(rawAdmin) == 0:
	case s.token == "":
		logger.Info("discarding stored admin without a token")
		if err := kv.Delete(KeyAdminUser); err != nil {
			return nil, fmt.Errorf("session: drop orphan admin: %w", err)
		}
	default:
		var admin models.Admin
		if err := json.Unmarshal(rawAdmin, &admin); err != nil {
			logger.Warn("discarding unreadable stored admin", zap.Error(err))
			_ = kv.Delete(KeyAdminUser)
		} else {
			s.admin = &admin
		}
	}

	consent, err := s.read(KeyPrivacyConsent)
	if err != nil {
		return nil, err
	}
	s.consent = string(consent) == "true"

	return s, nil
}

func (s *Store) read(key string) ([]byte, error) {
	v, err := s.kv.Get(key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read %s: %w", key, err)
	}
	return v, nil
}

// AttachTo subscribes ClearSession to the gateway's unauthorized hook so a
// rejected token never leaves a principal behind.
func (s *Store) AttachTo(sub Subscriber) func() {
	return sub.Subscribe(func() {
		if err := s.ClearSession(); err != nil {
			s.logger.Warn("failed to clear expired session", zap.Error(err))
		}
	})
}

// AuthToken returns the current bearer token, or "".
func (s *Store) AuthToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a non-empty token is held.
func (s *Store) IsAuthenticated() bool {
	return s.AuthToken() != ""
}

// SetAuthToken persists token. An empty token clears it.
func (s *Store) SetAuthToken(token string) error {
	if token == "" {
		return s.ClearAuthToken()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(KeyAuthToken, []byte(token)); err != nil {
		return fmt.Errorf("session: store token: %w", err)
	}
	s.token = token
	return nil
}

// ClearAuthToken forgets the token. Clearing twice is harmless.
func (s *Store) ClearAuthToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if err := s.kv.Delete(KeyAuthToken); err != nil {
		return fmt.Errorf("session: clear token: %w", err)
	}
	return nil
}

// SetSession stores token and principal together.
func (s *Store) SetSession(token string, admin models.Admin) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	raw, err := json.Marshal(admin)
	if err != nil {
		return fmt.Errorf("session: encode admin: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(KeyAuthToken, []byte(token)); err != nil {
		return fmt.Errorf("session: store token: %w", err)
	}
	if err := s.kv.Set(KeyAdminUser, raw); err != nil {
		_ = s.kv.Delete(KeyAuthToken)
		return fmt.Errorf("session: store admin: %w", err)
	}
	s.token = token
	s.admin = &admin
	return nil
}

// SetPrincipal replaces the stored administrator, keeping the token.
func (s *Store) SetPrincipal(admin models.Admin) error {
	raw, err := json.Marshal(admin)
	if err != nil {
		return fmt.Errorf("session: encode admin: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(KeyAdminUser, raw); err != nil {
		return fmt.Errorf("session: store admin: %w", err)
	}
	s.admin = &admin
	return nil
}

// Principal returns a copy of the stored administrator, or nil.
func (s *Store) Principal() *models.Admin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.admin == nil {
		return nil
	}
	admin := *s.admin
	return &admin
}

// ClearSession forgets both token and principal.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.admin = nil
	errToken := s.kv.Delete(KeyAuthToken)
	errAdmin := s.kv.Delete(KeyAdminUser)
	if err := errors.Join(errToken, errAdmin); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// PrivacyConsent reports whether the privacy notice was accepted.
func (s *Store) PrivacyConsent() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consent
}

// SetPrivacyConsent records acceptance of the privacy notice.
func (s *Store) SetPrivacyConsent() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(KeyPrivacyConsent, []byte("true")); err != nil {
		return fmt.Errorf("session: store consent: %w", err)
	}
	s.consent = true
	return nil
}
