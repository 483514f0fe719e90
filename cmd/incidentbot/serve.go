package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iLeonidze/OXPAHA28-bot/internal/telemetry"
	"github.com/iLeonidze/OXPAHA28-bot/pkg/incidentbot"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, version, os.Stderr, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	if err := identify(ctx, client, cfg, logger); err != nil {
		return err
	}

	incidentbot.RegisterBuiltins()
	bot, err := incidentbot.New(
		incidentbot.WithConfig(cfg),
		incidentbot.WithClient(client),
		incidentbot.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	logger.Info("starting incidentbot",
		slog.String("version", version),
		slog.String("config", configPath),
		slog.String("storage", cfg.Storage.Type))

	return bot.Run(ctx, shutdownTimeout)
}
