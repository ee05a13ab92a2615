// Package auth drives the administrator session: login, startup
// verification against the server, logout and reaction to expired tokens.
package auth

import (
	"context"
	"net/http"

	"github.com/noah-isme/contact-console/internal/client/gateway"
	"github.com/noah-isme/contact-console/internal/dto"
	"github.com/noah-isme/contact-console/internal/models"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
)

// Requester performs gateway calls. *gateway.Gateway satisfies it.
type Requester interface {
	Request(ctx context.Context, endpoint string, opts gateway.Options) (*gateway.Response, error)
}

// API calls the authentication endpoints.
type API struct {
	gw Requester
}

// NewAPI constructs an API.
func NewAPI(gw Requester) *API {
	return &API{gw: gw}
}

// Login exchanges credentials for a token and the administrator record.
func (a *API) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	resp, err := a.gw.Request(ctx, "/auth/login", gateway.Options{
		Method: http.MethodPost,
		Body:   models.LoginRequest{Email: email, Password: password},
		Public: true,
	})
	if err != nil {
		return nil, err
	}
	var body dto.LoginResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if body.Token == "" {
		return nil, appErrors.Clone(appErrors.ErrDecode, "login response did not include a token")
	}
	return &body, nil
}

// Me returns the administrator behind the current token.
func (a *API) Me(ctx context.Context) (*models.Admin, error) {
	resp, err := a.gw.Request(ctx, "/auth/me", gateway.Options{})
	if err != nil {
		return nil, err
	}
	var body dto.MeResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	return &body.Admin, nil
}
