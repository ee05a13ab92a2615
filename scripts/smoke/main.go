package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/noah-isme/contact-console/internal/client/auth"
	"github.com/noah-isme/contact-console/internal/client/gateway"
	"github.com/noah-isme/contact-console/internal/client/leads"
	"github.com/noah-isme/contact-console/internal/client/session"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
	"github.com/noah-isme/contact-console/pkg/kvstore"
)

type check struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context) error
}

type result struct {
	Check    check
	Err      error
	Skipped  bool
	Duration time.Duration
}

func main() {
	var (
		baseURL  string
		email    string
		password string
		timeout  time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api", "API base URL")
	flag.StringVar(&email, "email", os.Getenv("SMOKE_ADMIN_EMAIL"), "Administrator email (enables authenticated checks)")
	flag.StringVar(&password, "password", os.Getenv("SMOKE_ADMIN_PASSWORD"), "Administrator password")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "Per-request timeout")
	flag.Parse()

	store, err := session.New(kvstore.NewMemoryStore(), nil)
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	gw := gateway.New(gateway.Config{BaseURL: baseURL, Timeout: timeout}, store)
	store.AttachTo(gw)
	controller := auth.NewController(auth.NewAPI(gw), store, nil)
	svc := leads.New(gw, store, 5, nil)

	checks := []check{
		{Name: "GET /health", Critical: true, Run: func(ctx context.Context) error {
			health, err := gw.Health(ctx)
			if err != nil {
				return err
			}
			if health.Status != "ok" {
				return fmt.Errorf("status %q", health.Status)
			}
			return nil
		}},
		{Name: "GET /contact without token is rejected", Critical: true, Run: func(ctx context.Context) error {
			_, err := gw.Request(ctx, "/contact", gateway.Options{})
			if appErrors.HasCode(err, appErrors.ErrAuthRequired.Code) {
				return nil
			}
			return fmt.Errorf("expected 401, got %v", err)
		}},
	}
	if email != "" && password != "" {
		checks = append(checks,
			check{Name: "POST /auth/login", Critical: true, Run: func(ctx context.Context) error {
				return controller.Login(ctx, email, password)
			}},
			check{Name: "GET /auth/me", Critical: true, Run: controller.RefreshSession},
			check{Name: "GET /contact", Critical: true, Run: func(ctx context.Context) error {
				_, err := svc.List(ctx, leads.ListParams{Page: 1})
				return err
			}},
			check{Name: "GET /contact/stats", Run: func(ctx context.Context) error {
				_, err := svc.GetStats(ctx)
				return err
			}},
		)
	}

	var (
		results  []result
		breaking int
		optional int
	)
	ctx := context.Background()
	for _, c := range checks {
		res := result{Check: c}
		if breaking > 0 && c.Critical {
			res.Skipped = true
			results = append(results, res)
			continue
		}
		start := time.Now()
		res.Err = c.Run(ctx)
		res.Duration = time.Since(start)
		if res.Err != nil {
			if c.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	printReport(baseURL, results)

	fmt.Printf("Critical failures: %d, Optional failures: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func printReport(base string, results []result) {
	fmt.Printf("Smoke Report for %s\n", base)
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Skipped:
			status = "SKIP"
		case res.Err != nil:
			status = "FAIL"
		}
		fmt.Printf("[%s] %s (%s)\n", status, res.Check.Name, res.Duration.Round(time.Millisecond))
		if res.Err != nil {
			fmt.Printf("  Error: %v | Critical: %t\n", res.Err, res.Check.Critical)
		}
	}
}
