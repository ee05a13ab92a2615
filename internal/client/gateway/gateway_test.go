package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/contact-console/pkg/errors"
)

type staticToken string

func (s staticToken) AuthToken() string { return string(s) }

func newGateway(t *testing.T, handler http.HandlerFunc, token string) (*Gateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/api/"}, staticToken(token)), srv
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestRequestAttachesTokenAndDecodesJSON(t *testing.T) {
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contact", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "contacts": []string{}})
	}, "tok-123")

	resp, err := g.Request(context.Background(), "/contact", Options{Query: url.Values{"page": {"2"}}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, resp.IsJSON())

	var body struct {
		Success bool `json:"success"`
	}
	require.NoError(t, resp.Decode(&body))
	assert.True(t, body.Success)
}

func TestRequestWithoutTokenOmitsAuthorization(t *testing.T) {
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}, "")

	_, err := g.Request(context.Background(), "/contact", Options{})
	require.NoError(t, err)
}

func TestPublicRequestNeverSendsToken(t *testing.T) {
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"email":"a@b.co"}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
	}, "tok-123")

	resp, err := g.Request(context.Background(), "/contact/submit", Options{Method: http.MethodPost, Body: map[string]string{"email": "a@b.co"}, Public: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
}

func TestNonJSONBodyIsExposedAsText(t *testing.T) {
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	}, "")

	resp, err := g.Request(context.Background(), "/ping", Options{})
	require.NoError(t, err)
	assert.False(t, resp.IsJSON())
	assert.Equal(t, "pong", resp.Text)

	var v map[string]interface{}
	err = resp.Decode(&v)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrDecode.Code))
}

func TestUnauthorizedNotifiesHooksAndSignalsLogout(t *testing.T) {
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid or expired token", "error": "UNAUTHORIZED"})
	}, "tok-123")

	var calls int32
	unsubscribe := g.Subscribe(func() { atomic.AddInt32(&calls, 1) })

	_, err := g.Request(context.Background(), "/contact", Options{})
	require.Error(t, err)
	assert.True(t, appErrors.ShouldLogout(err))
	assert.True(t, errors.Is(err, appErrors.ErrAuthExpired))
	assert.Equal(t, "Session expired. Please log in again.", appErrors.FromError(err).Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	unsubscribe()
	_, err = g.Request(context.Background(), "/contact", Options{})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUnauthorizedOnPublicRequestKeepsServerMessage(t *testing.T) {
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid email or password", "error": "INVALID_CREDENTIALS"})
	}, "")

	var calls int32
	g.Subscribe(func() { atomic.AddInt32(&calls, 1) })

	_, err := g.Request(context.Background(), "/auth/login", Options{Method: http.MethodPost, Public: true})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrHTTP.Code, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "Invalid email or password", appErr.Message)
	assert.False(t, appErrors.ShouldLogout(err))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestHTTPErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		status      int
		body        string
		want        string
	}{
		{name: "message field", contentType: "application/json", status: http.StatusBadRequest, body: `{"success":false,"message":"Email is invalid","error":"VALIDATION_ERROR"}`, want: "Email is invalid"},
		{name: "error string", contentType: "application/json", status: http.StatusNotFound, body: `{"error":"Contact not found"}`, want: "Contact not found"},
		{name: "no message", contentType: "application/json", status: http.StatusInternalServerError, body: `{}`, want: "HTTP error 500"},
		{name: "html body", contentType: "text/html", status: http.StatusBadGateway, body: `<h1>bad gateway</h1>`, want: "HTTP error 502"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}, "tok")

			_, err := g.Request(context.Background(), "/contact", Options{})
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrHTTP.Code, appErr.Code)
			assert.Equal(t, tc.status, appErr.Status)
			assert.Equal(t, tc.want, appErr.Message)
			assert.False(t, appErrors.ShouldLogout(err))
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	g := New(Config{BaseURL: base}, nil)
	_, err := g.Request(context.Background(), "/contact", Options{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNetwork.Code, appErr.Code)
	assert.Equal(t, "Network error. Please check your connection.", appErr.Message)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	g := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := g.Request(context.Background(), "/contact", Options{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTimeout.Code, appErr.Code)
	assert.Equal(t, "Request timed out. Please try again.", appErr.Message)
}

func TestHeaderOverridesAndRawBody(t *testing.T) {
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		assert.Equal(t, "abc", r.Header.Get("X-Request-ID"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "a,b\n", string(body))
		w.WriteHeader(http.StatusNoContent)
	}, "")

	resp, err := g.Request(context.Background(), "/import", Options{
		Method:  http.MethodPost,
		RawBody: []byte("a,b\n"),
		Headers: map[string]string{"Content-Type": "text/csv", "X-Request-ID": "abc"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Empty(t, resp.Text)
}

func TestHealth(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g, _ := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "timestamp": now})
	}, "")

	health, err := g.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.True(t, now.Equal(health.Timestamp))
}
