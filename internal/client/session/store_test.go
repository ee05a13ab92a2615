package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/contact-console/internal/client/gateway"
	"github.com/noah-isme/contact-console/internal/models"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
	"github.com/noah-isme/contact-console/pkg/kvstore"
)

func testAdmin() models.Admin {
	return models.Admin{ID: "admin-1", Email: "admin@example.com", Name: "Kofi", Role: models.RoleAdmin}
}

func TestStoreTokenLifecycle(t *testing.T) {
	s, err := New(kvstore.NewMemoryStore(), nil)
	require.NoError(t, err)
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.AuthToken())

	require.NoError(t, s.SetAuthToken("tok"))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "tok", s.AuthToken())

	require.NoError(t, s.ClearAuthToken())
	require.NoError(t, s.ClearAuthToken())
	assert.False(t, s.IsAuthenticated())

	require.NoError(t, s.SetAuthToken("tok2"))
	require.NoError(t, s.SetAuthToken(""))
	assert.False(t, s.IsAuthenticated())
}

func TestStoreRestoresPersistedSession(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	first, err := New(kv, nil)
	require.NoError(t, err)
	require.NoError(t, first.SetSession("tok", testAdmin()))
	require.NoError(t, first.SetPrivacyConsent())

	second, err := New(kv, nil)
	require.NoError(t, err)
	assert.Equal(t, "tok", second.AuthToken())
	require.NotNil(t, second.Principal())
	assert.Equal(t, "Kofi", second.Principal().Name)
	assert.True(t, second.PrivacyConsent())
}

func TestStoreRestoresAcrossBadgerReopen(t *testing.T) {
	dir := t.TempDir()
	kv, err := kvstore.OpenBadger(kvstore.BadgerConfig{Path: dir})
	require.NoError(t, err)
	s, err := New(kv, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetSession("tok", testAdmin()))
	require.NoError(t, kv.Close())

	kv, err = kvstore.OpenBadger(kvstore.BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer kv.Close()
	restored, err := New(kv, nil)
	require.NoError(t, err)
	assert.Equal(t, "tok", restored.AuthToken())
	assert.Equal(t, "admin-1", restored.Principal().ID)
}

func TestStoreDropsCorruptPrincipal(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	require.NoError(t, kv.Set(KeyAuthToken, []byte("tok")))
	require.NoError(t, kv.Set(KeyAdminUser, []byte("{not json")))

	s, err := New(kv, nil)
	require.NoError(t, err)
	assert.Equal(t, "tok", s.AuthToken())
	assert.Nil(t, s.Principal())
	_, err = kv.Get(KeyAdminUser)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestStoreDropsPrincipalWithoutToken(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	require.NoError(t, kv.Set(KeyAdminUser, []byte(`{"id":"admin-1","email":"admin@example.com"}`)))

	s, err := New(kv, nil)
	require.NoError(t, err)
	assert.Empty(t, s.AuthToken())
	assert.Nil(t, s.Principal())
	_, err = kv.Get(KeyAdminUser)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestStoreClearSession(t *testing.T) {
	kv := kvstore.NewMemoryStore()
	s, err := New(kv, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetSession("tok", testAdmin()))

	require.NoError(t, s.ClearSession())
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.Principal())
	_, err = kv.Get(KeyAuthToken)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
	_, err = kv.Get(KeyAdminUser)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	assert.Error(t, s.SetSession("", testAdmin()))
}

func TestPrincipalIsACopy(t *testing.T) {
	s, err := New(kvstore.NewMemoryStore(), nil)
	require.NoError(t, err)
	require.NoError(t, s.SetSession("tok", testAdmin()))

	p := s.Principal()
	p.Name = "changed"
	assert.Equal(t, "Kofi", s.Principal().Name)
}

func TestGatewayUnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid or expired token","error":"UNAUTHORIZED"}`))
	}))
	defer srv.Close()

	kv := kvstore.NewMemoryStore()
	s, err := New(kv, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetSession("stale", testAdmin()))

	gw := gateway.New(gateway.Config{BaseURL: srv.URL}, s)
	detach := s.AttachTo(gw)
	defer detach()

	_, err = gw.Request(context.Background(), "/contact", gateway.Options{})
	require.Error(t, err)
	assert.True(t, appErrors.ShouldLogout(err))
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.Principal())

	_, err = kv.Get(KeyAuthToken)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
	_, err = kv.Get(KeyAdminUser)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	reopened, err := New(kv, nil)
	require.NoError(t, err)
	assert.Nil(t, reopened.Principal())
}
