// Package delivery renders dialog effects to chats and publishes finished
// reports to the moderation channel.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"time"

	"github.com/iLeonidze/OXPAHA28-bot/internal/telegram"
)

// ErrExhausted wraps the last error once every attempt failed.
var ErrExhausted = errors.New("delivery attempts exhausted")

const (
	defaultAttempts  = 3
	defaultBaseDelay = time.Second
	defaultMaxDelay  = 10 * time.Second
)

// Retrier runs an operation with bounded attempts and exponential backoff.
// A server-requested retry_after replaces the computed delay. Permanent API
// errors are returned at once.
type Retrier struct {
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	logger    *slog.Logger
}

// NewRetrier creates a retrier. Non-positive values use the defaults.
func NewRetrier(attempts int, baseDelay, maxDelay time.Duration, logger *slog.Logger) *Retrier {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	if maxDelay < baseDelay {
		maxDelay = max(baseDelay, defaultMaxDelay)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{attempts: attempts, baseDelay: baseDelay, maxDelay: maxDelay, logger: logger}
}

// backoff returns the delay before retry number attempt (0-based).
func (r *Retrier) backoff(attempt int) time.Duration {
	delay := float64(r.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(r.maxDelay) {
		delay = float64(r.maxDelay)
	}
	return time.Duration(delay)
}

// Do calls fn until it succeeds, fails permanently, or attempts run out.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return r.run(ctx, op, fn, false)
}

// Send is Do for calls that post a message. A timed-out request may still
// have been delivered, so it is returned without a retry.
func (r *Retrier) Send(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return r.run(ctx, op, fn, true)
}

func (r *Retrier) run(ctx context.Context, op string, fn func(ctx context.Context) error, once bool) error {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if telegram.IsPermanent(lastErr) || ctx.Err() != nil {
			return lastErr
		}
		if once && timedOut(lastErr) {
			return lastErr
		}
		if attempt == r.attempts-1 {
			break
		}

		delay := r.backoff(attempt)
		if d, ok := telegram.RetryAfter(lastErr); ok {
			delay = d
		}
		r.logger.Warn("delivery failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", r.attempts),
			slog.Duration("backoff", delay),
			slog.String("error", lastErr.Error()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%w: %s: %w", ErrExhausted, op, lastErr)
}

// timedOut reports whether err is a request that got no answer in time.
func timedOut(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
