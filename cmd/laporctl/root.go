package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/laporkota/laporkit/internal/config"
	"github.com/laporkota/laporkit/internal/logging"
	"github.com/laporkota/laporkit/internal/session"
	"github.com/laporkota/laporkit/internal/traces"
	"github.com/laporkota/laporkit/pkg/lapor"
	"github.com/laporkota/laporkit/pkg/resilient"
)

// app holds everything a subcommand needs. It is assembled once per
// invocation in the root PersistentPreRunE and torn down afterwards.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	sessions session.Store
	store    *session.BadgerStore

	auth    *lapor.AuthService
	reports *lapor.ReportService
	admin   *lapor.AdminService

	shutdownTraces func(context.Context) error
}

var cli *app

var rootCmd = &cobra.Command{
	Use:   "laporctl",
	Short: "Client for the city issue-reporting platform",
	Long: `laporctl talks to the reporting platform's backend services as either
the citizen client or the department dashboard client.

Set LAPOR_CLIENT_TYPE=web-admin to act as department staff. Service
base URLs and session storage are configured through LAPOR_* environment
variables or a .env file.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		cli = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cli != nil {
			cli.close(cmd.Context())
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(watchCmd)
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	store, err := session.OpenBadger(cfg.SessionDir)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	shutdown, err := traces.Init(ctx, cfg.OTLPEndpoint, logger)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}

	authClient := newClient(cfg, cfg.AuthURL, store, logger)
	reportClient := newClient(cfg, cfg.ReportURL, store, logger)

	return &app{
		cfg:            cfg,
		logger:         logger,
		sessions:       store,
		store:          store,
		auth:           lapor.NewAuthService(authClient, store),
		reports:        lapor.NewReportService(reportClient),
		admin:          lapor.NewAdminService(reportClient),
		shutdownTraces: shutdown,
	}, nil
}

func newClient(cfg *config.Config, baseURL string, store session.Store, logger *slog.Logger) *resilient.Client {
	c := resilient.New(resilient.Config{
		BaseURL:     baseURL,
		ClientType:  cfg.ClientType,
		TracePrefix: cfg.TracePrefix(),
		Timeout:     cfg.HTTPTimeout,
	}, store, logger)
	c.OnAuthExpired(func() {
		fmt.Fprintln(os.Stderr, warnStyle.Render("Session expired. Run 'laporctl login' to sign in again."))
	})
	return c
}

func (a *app) close(ctx context.Context) {
	if err := a.shutdownTraces(ctx); err != nil {
		a.logger.Warn("trace shutdown failed", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("session store close failed", "error", err)
	}
}

// currentSession returns the stored session or an error telling the user
// to log in.
func (a *app) currentSession() (session.Session, error) {
	sess, ok, err := a.sessions.Load()
	if err != nil {
		return session.Session{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return session.Session{}, fmt.Errorf("not logged in, run 'laporctl login' first")
	}
	return sess, nil
}

// requireAdmin guards staff-only commands.
func (a *app) requireAdmin() error {
	if !a.cfg.IsAdmin() {
		return fmt.Errorf("this command needs LAPOR_CLIENT_TYPE=%s", config.ClientAdmin)
	}
	return nil
}
