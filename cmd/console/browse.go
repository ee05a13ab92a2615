package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/contact-console/internal/client/auth"
	"github.com/noah-isme/contact-console/internal/client/dashboard"
	"github.com/noah-isme/contact-console/internal/client/leads"
	"github.com/noah-isme/contact-console/internal/client/view"
	"github.com/noah-isme/contact-console/internal/models"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
)

const browseHelp = `commands:
  n | p              next / previous page
  g <page>           go to page
  f <status|all>     filter by status
  s <text>           search (applied after you stop typing)
  v <id>             open a contact
  c                  close the open contact
  u <id> <status> [notes...]
                     update a contact
  r                  refresh
  q                  quit`

var (
	errQuit = errors.New("quit")
	errHelp = errors.New("help")
)

func newContactsBrowseCmd(get func() *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Interactive dashboard reading commands from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			if err := a.requireSession(ctx); err != nil {
				return err
			}

			d := a.dashboard(dashboard.Config{StatusFilter: status})
			defer d.Close()

			out := cmd.OutOrStdout()
			var outMu sync.Mutex
			unsubscribe := d.OnChange(func(s dashboard.State) {
				if s.Loading {
					return
				}
				outMu.Lock()
				defer outMu.Unlock()
				fmt.Fprintln(out, view.Dashboard(s, dashboard.PageWindow(s.Page, s.TotalPages), time.Local))
				if s.Selected != nil {
					fmt.Fprintln(out, view.Contact(s.Selected, time.Local))
				}
				fmt.Fprint(out, "> ")
			})
			defer unsubscribe()

			loggedOut := make(chan struct{})
			var once sync.Once
			unwatch := a.auth.Subscribe(func(s auth.State) {
				if s == auth.StateUnauthenticated {
					once.Do(func() { close(loggedOut) })
				}
			})
			defer unwatch()

			if err := d.Mount(ctx); err != nil {
				return err
			}

			lines := scanLines(cmd.InOrStdin())
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-loggedOut:
					return appErrors.Clone(appErrors.ErrAuthExpired, "")
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					err := runBrowseLine(ctx, d, line, a.logger)
					if errors.Is(err, errQuit) {
						return nil
					}
					if err != nil {
						outMu.Lock()
						if errors.Is(err, errHelp) {
							fmt.Fprintln(out, browseHelp)
						} else {
							fmt.Fprintln(out, view.Error(err))
						}
						fmt.Fprint(out, "> ")
						outMu.Unlock()
					}
				}
			}
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", models.StatusFilterAll, "Initial status filter")
	return cmd
}

// runBrowseLine applies one input line. Only input mistakes are returned;
// fetch failures surface through the dashboard state.
func runBrowseLine(ctx context.Context, d *dashboard.Controller, line string, log *zap.Logger) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	var err error
	switch fields[0] {
	case "q", "quit", "exit":
		return errQuit
	case "n", "next":
		err = d.NextPage(ctx)
	case "p", "prev":
		err = d.PrevPage(ctx)
	case "g", "page":
		n, convErr := strconv.Atoi(arg)
		if convErr != nil {
			return fmt.Errorf("page must be a number")
		}
		err = d.SetPage(ctx, n)
	case "f", "filter":
		err = d.SetStatusFilter(ctx, arg)
	case "s", "search":
		d.SetSearchInput(arg)
	case "v", "view":
		if arg == "" {
			return fmt.Errorf("usage: v <id>")
		}
		err = d.ViewContact(ctx, arg)
	case "c", "close":
		d.CloseDetail()
	case "u", "update":
		if len(fields) < 3 {
			return fmt.Errorf("usage: u <id> <status> [notes...]")
		}
		changes := leads.Changes{Status: fields[2]}
		if len(fields) > 3 {
			notes := strings.Join(fields[3:], " ")
			changes.AdminNotes = &notes
		}
		err = d.UpdateContact(ctx, fields[1], changes)
	case "r", "refresh":
		err = d.Refresh(ctx)
	case "h", "?", "help":
		return errHelp
	default:
		return fmt.Errorf("unknown command %q, type ? for help", fields[0])
	}
	if err != nil {
		log.Debug("browse command failed", zap.String("command", fields[0]), zap.Error(err))
	}
	return nil
}

func scanLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
