package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"mentalist/internal/bot"
	"mentalist/internal/config"
	"mentalist/internal/service"
)

// serveLeaseWait lets a one-shot command that is still writing finish first.
const serveLeaseWait = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run reminders, carry-forward and the Telegram bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.serve(cmd.Context())
		},
	}
}

func (app *App) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var (
		api      *tgbotapi.BotAPI
		notifier *bot.Notifier
		opts     service.PlannerOptions
	)
	if cfg.TelegramEnabled() {
		api, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create bot api: %w", err)
		}
		log.Printf("[info] bot authorized on account %s", api.Self.UserName)
		notifier = bot.NewNotifier(api, cfg.TelegramChatID)
		opts.Notifier = notifier
		opts.Celebrator = notifier
	} else {
		log.Printf("[warn] TELEGRAM_TOKEN is not set: reminders and celebrations go to the log")
	}

	planner, closeDB, err := openPlanner(ctx, cfg, opts, "serve", serveLeaseWait)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := planner.Start(ctx); err != nil {
		return fmt.Errorf("start planner: %w", err)
	}
	defer planner.Stop()

	log.Println("[info] MentaList started.")
	if api != nil {
		if err := bot.New(api, planner, notifier).Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("bot stopped with error: %w", err)
		}
	} else {
		<-ctx.Done()
	}

	planner.Stop()
	if err := planner.Save(context.Background()); err != nil {
		return err
	}
	log.Println("[info] Shutdown complete.")
	return nil
}
