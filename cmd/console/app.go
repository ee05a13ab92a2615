package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/noah-isme/contact-console/internal/client/auth"
	"github.com/noah-isme/contact-console/internal/client/dashboard"
	"github.com/noah-isme/contact-console/internal/client/gateway"
	"github.com/noah-isme/contact-console/internal/client/leads"
	"github.com/noah-isme/contact-console/internal/client/session"
	"github.com/noah-isme/contact-console/pkg/config"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
	"github.com/noah-isme/contact-console/pkg/kvstore"
	"github.com/noah-isme/contact-console/pkg/logger"
)

// app holds the wired client-side pipeline for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	kv      kvstore.Store
	session *session.Store
	gateway *gateway.Gateway
	auth    *auth.Controller
	leads   *leads.Service
	detach  func()
}

func newApp(apiURL string, verbose bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if apiURL != "" {
		cfg.Client.BaseURL = apiURL
	}

	log, err := logger.NewConsole(cfg, verbose)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	kv, err := kvstore.OpenBadger(kvstore.BadgerConfig{
		Path:   filepath.Join(cfg.Client.SessionDir, "session"),
		Logger: log.Named("badger"),
	})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	store, err := session.New(kv, log.Named("session"))
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}

	gw := gateway.New(gateway.Config{
		BaseURL: cfg.Client.BaseURL,
		Timeout: cfg.Client.Timeout,
		Logger:  log.Named("gateway"),
	}, store)
	detach := store.AttachTo(gw)

	return &app{
		cfg:     cfg,
		logger:  log,
		kv:      kv,
		session: store,
		gateway: gw,
		auth:    auth.NewController(auth.NewAPI(gw), store, log.Named("auth")),
		leads:   leads.New(gw, store, cfg.Client.PageSize, log.Named("leads")),
		detach:  detach,
	}, nil
}

func (a *app) Close() {
	if a.detach != nil {
		a.detach()
	}
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("failed to close session store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// requireSession restores and verifies the stored session.
func (a *app) requireSession(ctx context.Context) error {
	if a.auth.Init(ctx) != auth.StateAuthenticated {
		return appErrors.Clone(appErrors.ErrAuthRequired, "Not signed in. Run `contact-console login` first.")
	}
	return nil
}

func (a *app) dashboard(cfg dashboard.Config) *dashboard.Controller {
	cfg.PageSize = a.cfg.Client.PageSize
	if cfg.SearchDelay <= 0 {
		cfg.SearchDelay = a.cfg.Client.SearchDebounce
	}
	cfg.Logger = a.logger.Named("dashboard")
	return dashboard.New(a.leads, a.auth, cfg)
}

// fetchAll walks every page of the filtered list.
func (a *app) fetchAll(ctx context.Context, status, search string) ([]leads.ListResult, error) {
	var pages []leads.ListResult
	for page := 1; ; page++ {
		res, err := a.leads.List(ctx, leads.ListParams{Page: page, Status: status, Search: search})
		if err != nil {
			a.auth.HandleError(err)
			return nil, err
		}
		pages = append(pages, *res)
		if page >= res.Pagination.Pages || len(res.Contacts) == 0 {
			return pages, nil
		}
	}
}
