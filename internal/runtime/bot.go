// Package runtime assembles the bot: session store, dialog engine, delivery,
// the update dispatcher and the ingress, and manages their lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iLeonidze/OXPAHA28-bot/internal/config"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
	"github.com/iLeonidze/OXPAHA28-bot/internal/core/ports"
	"github.com/iLeonidze/OXPAHA28-bot/internal/dedup"
	"github.com/iLeonidze/OXPAHA28-bot/internal/delivery"
	"github.com/iLeonidze/OXPAHA28-bot/internal/dialog"
	"github.com/iLeonidze/OXPAHA28-bot/internal/frontdoor"
	"github.com/iLeonidze/OXPAHA28-bot/internal/pipeline"
	"github.com/iLeonidze/OXPAHA28-bot/internal/server"
	"github.com/iLeonidze/OXPAHA28-bot/internal/session"
	"github.com/iLeonidze/OXPAHA28-bot/internal/storage"
	"github.com/iLeonidze/OXPAHA28-bot/internal/telegram"
)

// ErrNotRunning is reported by Health outside Start and Shutdown.
var ErrNotRunning = errors.New("bot not running")

// Bot is the running incident report bot. It can be embedded in a larger
// program or run standalone from cmd/incidentbot.
type Bot struct {
	// Dependencies (injected via options)
	cfg       *config.Config
	client    *telegram.Client
	messenger ports.Messenger
	backend   ports.SnapshotStore
	logger    *slog.Logger
	now       func() time.Time

	sessions   *session.Store
	cache      *dedup.Cache
	engine     *dialog.Engine
	courier    *delivery.Courier
	dispatcher *Dispatcher
	ingress    frontdoor.Ingress
	server     *server.Server

	// Lifecycle management
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	running bool
}

// New wires a bot from the given options.
func New(opts ...Option) (*Bot, error) {
	b := &Bot{
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if b.cfg == nil {
		return nil, errors.New("config required (use WithConfig)")
	}
	if b.messenger == nil {
		if b.client == nil {
			return nil, errors.New("messenger required (use WithClient or WithMessenger)")
		}
		b.messenger = b.client
	}

	graph, err := dialog.BuildGraph(b.cfg)
	if err != nil {
		return nil, fmt.Errorf("build dialog graph: %w", err)
	}
	sanitizer, err := pipeline.NewSanitizer(pipeline.Config{
		BannedWords: b.cfg.Moderation.BannedWords,
		MaxLength:   b.cfg.Moderation.MaxTextLength,
		Scripts:     b.cfg.Moderation.Scripts,
	})
	if err != nil {
		return nil, fmt.Errorf("create sanitizer: %w", err)
	}

	if b.backend == nil {
		b.backend, err = storage.Open(b.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	b.sessions = session.New(b.backend, graph.Initial(),
		session.WithClock(b.now),
		session.WithLogger(b.logger))
	b.cache = dedup.New(b.cfg.Dedup.TTL,
		dedup.WithClock(b.now),
		dedup.WithLogger(b.logger))

	retry := delivery.NewRetrier(b.cfg.Delivery.Attempts, b.cfg.Delivery.Backoff, b.cfg.Delivery.MaxBackoff, b.logger)
	publisher := delivery.NewPublisher(b.messenger, b.cfg.Groups.Main.ID, retry, b.logger)
	b.engine = dialog.NewEngine(graph, b.cfg, sanitizer, b.cache, publisher,
		dialog.WithClock(b.now),
		dialog.WithLogger(b.logger))
	b.courier = delivery.NewCourier(b.messenger, b.logger)
	b.dispatcher = NewDispatcher(b.cfg.Dispatcher.Shards, b.cfg.Dispatcher.QueueSize, b.handle, b.logger)

	if b.client != nil {
		b.ingress, err = frontdoor.New(b.cfg.Telegram.Mode, frontdoor.HandlerConfig{
			Client: b.client,
			Config: b.cfg,
			Sink:   b.Dispatch,
			Logger: b.logger,
		})
		if err != nil {
			b.backend.Close()
			return nil, fmt.Errorf("create ingress: %w", err)
		}
	}

	if b.cfg.Server.Port > 0 {
		b.server = server.New(b.cfg.Server.Port, b.logger, b.Health)
		if b.ingress != nil {
			b.server.Mount(b.ingress.Handlers())
		}
	} else if b.ingress != nil && len(b.ingress.Handlers()) > 0 {
		b.backend.Close()
		return nil, fmt.Errorf("telegram.mode %s needs server.port", b.cfg.Telegram.Mode)
	}

	return b, nil
}

// Sessions returns the session store.
func (b *Bot) Sessions() *session.Store {
	return b.sessions
}

// Dispatch queues one inbound message. It is the ingress sink.
func (b *Bot) Dispatch(ctx context.Context, in domain.Input) error {
	return b.dispatcher.Submit(ctx, in)
}

// Start loads the session snapshot and starts the background loops: the
// snapshot flush, the dedup prune, the dispatcher workers, the ingress and
// the HTTP server. A loop failing stops all of them; Wait reports the error.
// A snapshot that cannot be read is logged and the bot starts empty.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done != nil {
		return errors.New("bot already started")
	}

	if err := b.sessions.Load(ctx); err != nil {
		b.logger.Error("failed to load sessions, starting empty", slog.String("error", err.Error()))
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error { return b.sessions.Run(gctx, b.cfg.Session.FlushInterval) })
	g.Go(func() error { return b.cache.Run(gctx, b.cfg.Dedup.PruneInterval) })
	g.Go(func() error { return b.dispatcher.Run(gctx) })
	if b.ingress != nil {
		g.Go(func() error {
			if err := b.ingress.Run(gctx); err != nil {
				return fmt.Errorf("ingress: %w", err)
			}
			return nil
		})
	}
	if b.server != nil {
		g.Go(func() error { return b.server.Run(gctx) })
	}

	b.cancel = cancel
	b.done = make(chan struct{})
	b.running = true
	go func() {
		err := g.Wait()
		b.mu.Lock()
		b.err = err
		b.running = false
		b.mu.Unlock()
		close(b.done)
	}()

	b.logger.Info("bot started",
		slog.String("mode", b.cfg.Telegram.Mode),
		slog.Int("sessions", b.sessions.Len()),
		slog.Int("shards", b.cfg.Dispatcher.Shards),
		slog.Int("port", b.cfg.Server.Port))

	return nil
}

// Wait blocks until the background loops stop and returns the first error.
func (b *Bot) Wait() error {
	b.mu.Lock()
	done := b.done
	b.mu.Unlock()
	if done == nil {
		return ErrNotRunning
	}

	<-done

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Shutdown stops the ingress, drains the dispatcher, writes a final
// snapshot and closes storage. It returns ctx's error if the loops do not
// stop in time.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.mu.Unlock()

	b.logger.Info("shutting down bot")

	var errs []error
	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("wait for loops: %w", ctx.Err())
		}
		b.mu.Lock()
		if b.err != nil {
			errs = append(errs, b.err)
		}
		b.mu.Unlock()
	}

	if err := b.sessions.Flush(ctx); err != nil {
		b.logger.Error("failed to flush sessions", slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("final flush: %w", err))
	}
	if err := b.backend.Close(); err != nil {
		b.logger.Error("failed to close storage", slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}

	b.logger.Info("bot shutdown complete")
	return errors.Join(errs...)
}

// Run starts the bot, blocks until ctx is done or a loop fails, then shuts
// down within timeout.
func (b *Bot) Run(ctx context.Context, timeout time.Duration) error {
	if err := b.Start(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	done := b.done
	b.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-done:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return b.Shutdown(shutdownCtx)
}

// Health reports ErrNotRunning unless the background loops are running.
func (b *Bot) Health(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return ErrNotRunning
	}
	return nil
}
