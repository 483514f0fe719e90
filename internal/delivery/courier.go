package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
)

// Courier renders effects to chats. Delivery is best effort: a failed
// effect is logged and the rest are still sent.
type Courier struct {
	messenger ports.Messenger
	logger    *slog.Logger
}

func NewCourier(messenger ports.Messenger, logger *slog.Logger) *Courier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Courier{messenger: messenger, logger: logger}
}

// Deliver sends effects in order and returns how many were sent.
func (c *Courier) Deliver(ctx context.Context, effects []domain.Effect) int {
	sent := 0
	for _, e := range effects {
		if err := c.send(ctx, e); err != nil {
			if ctx.Err() != nil {
				return sent
			}
			c.logger.Warn("failed to deliver effect",
				slog.Int64("chat_id", e.ChatID),
				slog.String("kind", string(e.Kind)),
				slog.String("error", err.Error()))
			continue
		}
		sent++
	}
	return sent
}

func (c *Courier) send(ctx context.Context, e domain.Effect) error {
	opts := ports.SendOptions{Markdown: e.Markdown, Keyboard: e.Keyboard, Silent: e.Silent}
	var err error
	switch e.Kind {
	case domain.EffectText, "":
		_, err = c.messenger.SendText(ctx, e.ChatID, e.Text, opts)
	case domain.EffectMedia:
		if e.Media == nil {
			return errors.New("media effect without media")
		}
		_, err = c.messenger.SendMedia(ctx, e.ChatID, *e.Media, opts)
	case domain.EffectLocation:
		if e.Location == nil {
			return errors.New("location effect without location")
		}
		_, err = c.messenger.SendLocation(ctx, e.ChatID, *e.Location, opts)
	default:
		return fmt.Errorf("unknown effect kind %q", e.Kind)
	}
	return err
}
