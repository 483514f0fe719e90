package runtime

import (
	"errors"
	"log/slog"
	"time"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
	"github.com/iLeonidze/OXPAHA28-bot/internal/telegram"
)

// Option is a functional option for configuring a Bot.
type Option func(*Bot) error

// WithConfig sets the validated bot configuration. Required.
func WithConfig(cfg *config.Config) Option {
	return func(b *Bot) error {
		if cfg == nil {
			return errors.New("nil config")
		}
		b.cfg = cfg
		return nil
	}
}

// WithClient uses the Bot API client for both ingress and outbound
// messages. Without it the bot has no ingress and inputs must be passed to
// Dispatch directly.
func WithClient(client *telegram.Client) Option {
	return func(b *Bot) error {
		b.client = client
		return nil
	}
}

// WithMessenger overrides the outbound transport. Defaults to the client.
func WithMessenger(m ports.Messenger) Option {
	return func(b *Bot) error {
		b.messenger = m
		return nil
	}
}

// WithSnapshotStore overrides the session snapshot backend. Defaults to the
// backend selected by the storage section of the configuration.
func WithSnapshotStore(store ports.SnapshotStore) Option {
	return func(b *Bot) error {
		b.backend = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) error {
		b.logger = logger
		return nil
	}
}

// WithClock overrides the time source of sessions, deduplication and the
// dialog engine.
func WithClock(now func() time.Time) Option {
	return func(b *Bot) error {
		b.now = now
		return nil
	}
}
