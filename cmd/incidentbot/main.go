package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/telegram"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// CLI flags
var (
	configPath string
	envFile    string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "incidentbot",
		Short: "Telegram bot collecting incident reports from residents",
		Long: `incidentbot walks residents through a short form (category, address,
problem area, details), then posts the finished report to the moderation
channel.

Examples:
  incidentbot serve
  incidentbot serve --config /etc/incidentbot/config.yaml
  incidentbot check-config
  incidentbot announce --pin`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is fine; the environment may be set already.
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the configuration")

	root.AddCommand(newServeCmd(), newCheckConfigCmd(), newAnnounceCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds the logger it describes.
func loadConfig(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log, w)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
}

func newClient(cfg *config.Config) (*telegram.Client, error) {
	if cfg.Telegram.Token == "" {
		return nil, errors.New("telegram.token is required")
	}
	return telegram.NewClient(cfg.Telegram.Token,
		telegram.WithBaseURL(cfg.Telegram.APIBaseURL),
		telegram.WithTimeout(cfg.Telegram.RequestTimeout),
	), nil
}

// identify checks the token and fills in the bot username when the
// configuration leaves it out.
func identify(ctx context.Context, client *telegram.Client, cfg *config.Config, logger *slog.Logger) error {
	me, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("getMe: %w", err)
	}
	if cfg.Telegram.Username == "" {
		cfg.Telegram.Username = me.Username
	} else if !strings.EqualFold(cfg.Telegram.Username, me.Username) {
		logger.Warn("configured username differs from the bot account",
			slog.String("configured", cfg.Telegram.Username),
			slog.String("actual", me.Username))
	}
	logger.Info("authorized", slog.Int64("bot_id", me.ID), slog.String("username", me.Username))
	return nil
}
