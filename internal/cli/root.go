package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mentalist/internal/config"
	"mentalist/internal/repository"
	"mentalist/internal/service"
)

// oneShotLeaseWait covers another one-shot command finishing; a running serve
// holds the lease for its whole life and makes the command fail.
const oneShotLeaseWait = 2 * time.Second

type App struct {
	ConfigPath string
	Verbose    bool
}

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "mentalist",
		Short:         "MentaList task lists, reminders and shared tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Run reminders, carry-forward and the Telegram bot
  mentalist serve

  # Scriptable commands
  mentalist add "Water plants" --list personal --due 2026-03-20 --remind 08:00
  mentalist add "Dentist" --schedule 2026-03-21
  mentalist attach 0f8c2e1a --note "bring the referral letter"
  mentalist list personal
  mentalist done 0f8c2e1a
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !app.Verbose && cmd.Name() != "serve" {
			log.SetOutput(io.Discard)
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", os.Getenv("MENTALIST_CONFIG"), "Path to a config file (yaml, json or toml)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Print log output for one-shot commands")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newAttachCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newBreakdownCmd(app))
	cmd.AddCommand(newListsCmd(app))
	cmd.AddCommand(newSuggestCmd(app))
	cmd.AddCommand(newInboxCmd(app))

	return cmd
}

// leaseRetry is how often a blocked writer checks the lease again.
const leaseRetry = 250 * time.Millisecond

// writerName identifies this process in the writer lease.
func writerName(role string) string {
	host, _ := os.Hostname()
	return fmt.Sprintf("mentalist %s (pid %d on %s)", role, os.Getpid(), host)
}

// openPlanner connects to the configured database, claims it for role and restores
// the planner from it. A claim held elsewhere is retried for up to wait.
func openPlanner(ctx context.Context, cfg config.Config, opts service.PlannerOptions, role string, wait time.Duration) (*service.Planner, func(), error) {
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	opts.Location = cfg.Location
	opts.ReminderInterval = cfg.ReminderInterval
	if opts.Breakdown == nil {
		opts.Breakdown = service.NewGeminiBreakdown(cfg.GeminiAPIKey, cfg.GeminiModel)
	}

	planner := service.NewPlanner(repository.NewStateRepository(db), opts)
	if err := acquireWriter(ctx, planner, writerName(role), wait); err != nil {
		closeDB()
		return nil, nil, err
	}
	release := func() {
		if err := planner.ReleaseWriter(context.Background()); err != nil {
			log.Printf("[warn] release writer lease: %v", err)
		}
		closeDB()
	}

	planner.Load(ctx)
	return planner, release, nil
}

func acquireWriter(ctx context.Context, p *service.Planner, holder string, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for {
		err := p.AcquireWriter(ctx, holder)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrLeaseHeld) || !time.Now().Before(deadline) {
			return fmt.Errorf("claim state: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(leaseRetry):
		}
	}
}

// withPlanner runs fn against a freshly loaded planner and persists the result.
func (app *App) withPlanner(cmd *cobra.Command, fn func(p *service.Planner, st styles) error) error {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	planner, closeDB, err := openPlanner(cmd.Context(), cfg, service.PlannerOptions{}, cmd.Name(), oneShotLeaseWait)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := fn(planner, newStyles(cmd.OutOrStdout(), planner.ActiveTheme())); err != nil {
		return err
	}
	return planner.Save(cmd.Context())
}

func (app *App) println(cmd *cobra.Command, s string) {
	fmt.Fprintln(cmd.OutOrStdout(), s)
}

func resolveTask(p *service.Planner, ref string) (string, error) {
	task, ok := p.Tasks.Resolve(ref)
	if !ok {
		return "", errNotFound("task", ref)
	}
	return task.ID, nil
}
