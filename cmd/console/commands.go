package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/contact-console/internal/client/dashboard"
	"github.com/noah-isme/contact-console/internal/client/leads"
	"github.com/noah-isme/contact-console/internal/client/view"
	"github.com/noah-isme/contact-console/internal/models"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
	"github.com/noah-isme/contact-console/pkg/export"
	"github.com/noah-isme/contact-console/pkg/storage"
)

// newRootCmd builds the command tree. The returned func releases the session
// store and must run once the command finishes.
func newRootCmd() (*cobra.Command, func()) {
	var (
		current *app
		apiURL  string
		verbose bool
	)
	cleanup := func() {
		if current != nil {
			current.Close()
			current = nil
		}
	}

	root := &cobra.Command{
		Use:           "contact-console",
		Short:         "Administer school contact requests from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(apiURL, verbose)
			if err != nil {
				return err
			}
			current = a
			return nil
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (overrides API_BASE_URL)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")

	get := func() *app { return current }

	contacts := &cobra.Command{Use: "contacts", Short: "List, inspect and update contact requests"}
	contacts.AddCommand(
		newContactsListCmd(get),
		newContactsShowCmd(get),
		newContactsUpdateCmd(get),
		newContactsBrowseCmd(get),
	)

	root.AddCommand(
		newLoginCmd(get),
		newLogoutCmd(get),
		newWhoamiCmd(get),
		contacts,
		newStatsCmd(get),
		newSubmitCmd(get),
		newExportCmd(get),
		newHealthCmd(get),
	)
	return root, cleanup
}

func newLoginCmd(get func() *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = line
			}
			if err := a.auth.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			admin := a.auth.Principal()
			fmt.Fprintln(cmd.OutOrStdout(), view.Success("Signed in as "+admin.Email))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Administrator email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	return cmd
}

func newLogoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			get().auth.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), view.Success("Signed out"))
			return nil
		},
	}
}

func newWhoamiCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Admin(a.auth.Principal()))
			return nil
		},
	}
}

func newContactsListCmd(get func() *app) *cobra.Command {
	var (
		status, search string
		page           int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of contact requests with the pipeline counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			d := a.dashboard(dashboard.Config{StatusFilter: status, Search: search, Page: page})
			defer d.Close()
			if err := d.Mount(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Dashboard(d.Snapshot(), d.PageWindow(), time.Local))
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", models.StatusFilterAll, "Status filter: all, new, contacted, in-progress, completed")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Search name, school or email")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func newContactsShowCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one contact request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			d := a.dashboard(dashboard.Config{})
			defer d.Close()
			if err := d.ViewContact(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Contact(d.Snapshot().Selected, time.Local))
			return nil
		},
	}
}

func newContactsUpdateCmd(get func() *app) *cobra.Command {
	var status, notes string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a contact's status or notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			changes := leads.Changes{Status: status}
			if cmd.Flags().Changed("notes") {
				changes.AdminNotes = &notes
			}
			d := a.dashboard(dashboard.Config{})
			defer d.Close()
			if err := d.UpdateContact(cmd.Context(), args[0], changes); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, view.Success("Contact updated"))
			fmt.Fprintln(out, view.Dashboard(d.Snapshot(), d.PageWindow(), time.Local))
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "New status: new, contacted, in-progress, completed")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Replace the admin notes")
	return cmd
}

func newStatsCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the pipeline counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			stats, err := a.leads.GetStats(cmd.Context())
			if err != nil {
				a.auth.HandleError(err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Stats(stats))
			return nil
		},
	}
}

func newSubmitCmd(get func() *app) *cobra.Command {
	var (
		form          models.ContactSubmission
		position      string
		students      int
		acceptPrivacy bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Send a contact request through the public form endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if !a.session.PrivacyConsent() {
				if !acceptPrivacy {
					return appErrors.Clone(appErrors.ErrValidation, "Please accept the privacy policy first (--accept-privacy)")
				}
				if err := a.session.SetPrivacyConsent(); err != nil {
					return err
				}
			}
			form.Position = models.Position(position)
			if cmd.Flags().Changed("students") {
				form.Students = &students
			}
			res, err := a.leads.Submit(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Success(res.Message))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.Name, "name", "", "Full name")
	f.StringVar(&form.School, "school", "", "School name")
	f.StringVar(&position, "position", "", "Headteacher, Deputy Headteacher, Teacher, Proprietor, Administrator, Parent or Other")
	f.StringVar(&form.Email, "email", "", "Email address")
	f.StringVar(&form.Phone, "phone", "", "Phone number")
	f.IntVar(&students, "students", 0, "Number of students")
	f.StringVar(&form.Message, "message", "", "Optional message")
	f.BoolVar(&acceptPrivacy, "accept-privacy", false, "Accept the privacy policy")
	return cmd
}

func newExportCmd(get func() *app) *cobra.Command {
	var (
		status, search, dir string
		prune               time.Duration
	)
	cmd := &cobra.Command{
		Use:       "export <csv|pdf>",
		Short:     "Export every contact matching the filters to a file",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"csv", "pdf"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			pages, err := a.fetchAll(cmd.Context(), status, search)
			if err != nil {
				return err
			}
			var contacts []models.Contact
			for _, p := range pages {
				contacts = append(contacts, p.Contacts...)
			}

			if dir == "" {
				dir = a.cfg.Client.ExportDir
			}
			store, err := storage.NewLocalStorage(dir)
			if err != nil {
				return err
			}
			if prune > 0 {
				removed, err := store.CleanupOlderThan(prune)
				if err != nil {
					return err
				}
				a.logger.Debug("pruned old exports", zap.Int("count", len(removed)))
				for _, name := range removed {
					fmt.Fprintln(cmd.ErrOrStderr(), "removed "+name)
				}
			}

			now := time.Now()
			data := export.ContactsDataset(contacts, time.Local)
			var out []byte
			switch args[0] {
			case "csv":
				out, err = export.NewCSVExporter().Render(data)
			case "pdf":
				out, err = export.NewPDFExporter().Render(data, "Contact requests "+now.Format("2006-01-02"))
			}
			if err != nil {
				return err
			}
			path, err := store.Save(storage.FileName("contacts", args[0], now), out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Success(fmt.Sprintf("Exported %d contact(s) to %s", len(contacts), path)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", models.StatusFilterAll, "Status filter")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Search name, school or email")
	cmd.Flags().StringVarP(&dir, "out", "o", "", "Output directory (defaults to EXPORT_DIR)")
	cmd.Flags().DurationVar(&prune, "prune", 0, "Delete exports older than this first, e.g. 720h")
	return cmd
}

func newHealthCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := get().gateway.Health(cmd.Context())
			if err != nil {
				return err
			}
			if health.Status != "ok" {
				return appErrors.New(appErrors.ErrHTTP.Code, http.StatusServiceUnavailable, "API reported status "+health.Status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Success("API healthy at "+health.Timestamp.Local().Format(time.RFC3339)))
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
