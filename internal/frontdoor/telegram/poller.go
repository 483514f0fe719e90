package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iLeonidze/OXPAHA28-bot/internal/frontdoor"
	botapi "github.com/iLeonidze/OXPAHA28-bot/internal/telegram"
)

const (
	minPollBackoff = time.Second
	maxPollBackoff = 30 * time.Second
)

// allowedUpdates limits delivery to new messages.
var allowedUpdates = []string{"message"}

// UpdatesAPI is the part of the Bot API the poller uses.
type UpdatesAPI interface {
	GetUpdates(ctx context.Context, req *botapi.GetUpdatesRequest) ([]botapi.Update, error)
	DeleteWebhook(ctx context.Context, req *botapi.DeleteWebhookRequest) error
}

// Poller long-polls getUpdates and feeds the sink. The offset advances past
// every received update, whether or not the sink accepted it.
type Poller struct {
	api       UpdatesAPI
	converter Converter
	sink      frontdoor.Sink
	timeout   time.Duration
	logger    *slog.Logger
	offset    int64
}

// NewPoller creates a poller. timeout is the long-poll duration.
func NewPoller(api UpdatesAPI, converter Converter, sink frontdoor.Sink, timeout time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		api:       api,
		converter: converter,
		sink:      sink,
		timeout:   timeout,
		logger:    logger,
	}
}

func (p *Poller) Handlers() []frontdoor.HandlerRegistration { return nil }

// Offset returns the next update id to request.
func (p *Poller) Offset() int64 {
	return p.offset
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.api.DeleteWebhook(ctx, &botapi.DeleteWebhookRequest{}); err != nil && ctx.Err() == nil {
		p.logger.Warn("failed to delete webhook before polling", slog.String("error", err.Error()))
	}

	backoff := minPollBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := p.api.GetUpdates(ctx, &botapi.GetUpdatesRequest{
			Offset:         p.offset,
			Timeout:        int(p.timeout / time.Second),
			AllowedUpdates: allowedUpdates,
		})
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			wait := backoff
			if d, ok := botapi.RetryAfter(err); ok {
				wait = d
			}
			p.logger.Warn("getUpdates failed",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", wait))
			if !sleep(ctx, wait) {
				return nil
			}
			backoff = min(backoff*2, maxPollBackoff)
			continue
		}
		backoff = minPollBackoff

		for _, u := range updates {
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			p.deliver(ctx, u)
		}
	}
}

func (p *Poller) deliver(ctx context.Context, u botapi.Update) {
	in, ok := p.converter.Convert(u)
	if !ok {
		return
	}
	if err := p.sink(ctx, in); err != nil && ctx.Err() == nil {
		p.logger.Error("dropped update",
			slog.Int64("update_id", u.UpdateID),
			slog.Int64("user_id", in.Sender.ID),
			slog.String("error", err.Error()))
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
