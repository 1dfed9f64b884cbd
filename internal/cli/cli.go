// Package cli wires the fonhockey binary: odds collection, result
// reconciliation, and the HTTP server, all driven by one YAML config.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apovetkin/fonhockey/internal/notify"
	"github.com/apovetkin/fonhockey/internal/pkg/config"
	"github.com/apovetkin/fonhockey/internal/pkg/logging"
	"github.com/apovetkin/fonhockey/internal/runner"
	"github.com/apovetkin/fonhockey/internal/web"
)

var (
	flagConfig   string
	flagLeague   string
	flagHeadless bool
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fonhockey",
		Short:         "Hockey odds collector and result reconciler",
		Long:          "Scrapes bookmaker odds for hockey leagues into CSV ledgers, settles them against final scores, and serves both over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := "configs/production.yaml"
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		defaultConfig = env
	}
	cmd.PersistentFlags().StringVar(&flagConfig, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")

	cmd.AddCommand(newOddsCmd(), newResultsCmd(), newServeCmd())
	return cmd
}

func newOddsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "odds",
		Short: "Collect current odds into the league's ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJob(cmd.Context(), "odds")
		},
	}
	addRunFlags(cmd)
	return cmd
}

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Settle the league's ledger against final scores",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJob(cmd.Context(), "results")
		},
	}
	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagLeague, "league", "", "League to process (e.g. khl)")
	cmd.Flags().BoolVar(&flagHeadless, "headless", true, "Run the browser headless")
	cmd.MarkFlagRequired("league")
}

// runJob executes one collection job in the foreground and waits for
// it to finish.
func runJob(parent context.Context, kind string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	logging.SetupLogger(&cfg.Logging, "fonhockey-"+kind)

	if _, err := cfg.League(flagLeague); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := notify.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	r := runner.New(cfg, notifier)

	job := flagLeague + "_" + kind
	headless := flagHeadless
	if err := r.Start(job, &headless); err != nil {
		return err
	}
	if err := r.Wait(ctx, job); err != nil {
		return fmt.Errorf("%s: %w", job, err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve ledgers and job triggers over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			logging.SetupLogger(&cfg.Logging, "fonhockey-serve")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			notifier := notify.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
			srv := web.NewServer(cfg, runner.New(cfg, notifier))

			slog.Info("Starting server", "port", cfg.Server.Port, "leagues", len(cfg.Leagues))
			return srv.ListenAndServe(ctx)
		},
	}
}
