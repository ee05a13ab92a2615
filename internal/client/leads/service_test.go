package leads

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/contact-console/internal/client/gateway"
	"github.com/noah-isme/contact-console/internal/client/session"
	"github.com/noah-isme/contact-console/internal/models"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
	"github.com/noah-isme/contact-console/pkg/kvstore"
)

type recordedCall struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

type fakeAPI struct {
	mu      sync.Mutex
	calls   []recordedCall
	handler http.HandlerFunc
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Auth: r.Header.Get("Authorization"), Body: string(body)})
	f.mu.Unlock()
	f.handler(w, r)
}

func (f *fakeAPI) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func respond(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type fixture struct {
	api     *fakeAPI
	store   *session.Store
	service *Service
}

func newFixture(t *testing.T, token string, handler http.HandlerFunc) *fixture {
	t.Helper()
	api := &fakeAPI{handler: handler}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store, err := session.New(kvstore.NewMemoryStore(), nil)
	require.NoError(t, err)
	if token != "" {
		require.NoError(t, store.SetSession(token, models.Admin{ID: "admin-1", Name: "Kofi"}))
	}
	gw := gateway.New(gateway.Config{BaseURL: srv.URL + "/api"}, store)
	store.AttachTo(gw)

	return &fixture{api: api, store: store, service: New(gw, store, 10, nil)}
}

func validForm() models.ContactSubmission {
	return models.ContactSubmission{
		Name:     "Ama",
		School:   "St. Mary's",
		Position: models.PositionHeadteacher,
		Email:    "ama@example.com",
		Phone:    "0591038729",
	}
}

func TestSubmitRejectsBadEmailLocally(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	form := validForm()
	form.Email = "bad-email"
	_, err := f.service.Submit(context.Background(), form)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "Email is invalid", appErr.Message)
	assert.Empty(t, f.api.Calls())
}

func TestSubmitRejectsMissingRequiredFieldsLocally(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	for _, clear := range []func(*models.ContactSubmission){
		func(c *models.ContactSubmission) { c.Name = "" },
		func(c *models.ContactSubmission) { c.School = "  " },
		func(c *models.ContactSubmission) { c.Position = "" },
		func(c *models.ContactSubmission) { c.Email = "" },
		func(c *models.ContactSubmission) { c.Phone = "" },
	} {
		form := validForm()
		clear(&form)
		_, err := f.service.Submit(context.Background(), form)
		require.Error(t, err)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
		assert.Contains(t, appErrors.FromError(err).Message, "is required")
	}
	assert.Empty(t, f.api.Calls())
}

func TestValidateSubmissionJoinsMessages(t *testing.T) {
	problems := ValidateSubmission(models.ContactSubmission{Email: "nope", Phone: "12"})
	assert.Equal(t, []string{"Name is required", "School is required", "Position is required", "Email is invalid", "Phone is invalid"}, problems)
	assert.Empty(t, ValidateSubmission(validForm()))
}

func TestSubmitIsPublic(t *testing.T) {
	f := newFixture(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusCreated, `{"success":true,"message":"Thank you!","contact":{"id":"c-1","name":"Ama","status":"new"}}`)
	})

	res, err := f.service.Submit(context.Background(), validForm())
	require.NoError(t, err)
	assert.Equal(t, "c-1", res.Contact.ID)
	assert.Equal(t, "Thank you!", res.Message)

	calls := f.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/contact/submit", calls[0].Path)
	assert.Empty(t, calls[0].Auth)
	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(calls[0].Body), &sent))
	assert.Equal(t, "Headteacher", sent["position"])
}

func TestAuthenticatedCallsShortCircuitWithoutSession(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	ctx := context.Background()

	_, err := f.service.List(ctx, ListParams{})
	assert.True(t, appErrors.ShouldLogout(err))
	_, err = f.service.GetByID(ctx, "c-1")
	assert.True(t, appErrors.ShouldLogout(err))
	_, err = f.service.UpdateStatus(ctx, "c-1", Changes{Status: "contacted"})
	assert.True(t, appErrors.ShouldLogout(err))
	_, err = f.service.GetStats(ctx)
	assert.True(t, appErrors.ShouldLogout(err))
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAuthRequired.Code))

	assert.Empty(t, f.api.Calls())
}

func TestListSendsFiltersAndDecodes(t *testing.T) {
	f := newFixture(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `{"success":true,"contacts":[{"id":"1"},{"id":"2"},{"id":"3"}],"pagination":{"page":1,"limit":10,"total":13,"pages":2}}`)
	})

	res, err := f.service.List(context.Background(), ListParams{Status: "new", Search: "Ama", Page: 1})
	require.NoError(t, err)
	assert.Len(t, res.Contacts, 3)
	assert.Equal(t, 2, res.Pagination.Pages)

	calls := f.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer tok", calls[0].Auth)
	assert.Equal(t, "limit=10&page=1&search=Ama&status=new", calls[0].Query)
}

func TestListOmitsAllStatus(t *testing.T) {
	f := newFixture(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `{"success":true,"contacts":null,"pagination":{"page":1,"limit":10,"total":0,"pages":0}}`)
	})

	res, err := f.service.List(context.Background(), ListParams{Status: models.StatusFilterAll})
	require.NoError(t, err)
	assert.NotNil(t, res.Contacts)
	assert.Equal(t, 1, res.Pagination.Pages)
	assert.Equal(t, "limit=10&page=1", f.api.Calls()[0].Query)
}

func TestUnauthorizedResponseClearsSession(t *testing.T) {
	f := newFixture(t, "stale", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid or expired token","error":"UNAUTHORIZED"}`)
	})

	_, err := f.service.GetStats(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.ShouldLogout(err))
	assert.Empty(t, f.store.AuthToken())
	assert.False(t, f.store.IsAuthenticated())

	_, err = f.service.List(context.Background(), ListParams{})
	assert.True(t, appErrors.ShouldLogout(err))
	assert.Len(t, f.api.Calls(), 1)
}

func TestUpdateStatusFiltersChanges(t *testing.T) {
	f := newFixture(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `{"success":true,"contact":{"id":"c-1","status":"contacted"}}`)
	})
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, "c-1", Changes{Status: "archived"})
	require.Error(t, err)
	assert.Equal(t, "No valid updates provided", appErrors.FromError(err).Message)
	assert.Empty(t, f.api.Calls())

	notes := "Call back Friday"
	contact, err := f.service.UpdateStatus(ctx, "c-1", Changes{Status: "archived", AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.ContactStatusContacted, contact.Status)
	calls := f.api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.JSONEq(t, `{"adminNotes":"Call back Friday"}`, calls[0].Body)

	_, err = f.service.UpdateStatus(ctx, "c-1", Changes{Status: "contacted"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"contacted"}`, f.api.Calls()[1].Body)
}

func TestGetByIDPassesServerMessage(t *testing.T) {
	f := newFixture(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusNotFound, `{"success":false,"message":"Contact not found","error":"NOT_FOUND"}`)
	})

	_, err := f.service.GetByID(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "Contact not found", appErr.Message)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.False(t, appErrors.ShouldLogout(err))
}
