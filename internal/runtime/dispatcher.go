package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/iLeonidze/OXPAHA28-bot/internal/core/domain"
)

// ErrStopped is returned by Submit once the dispatcher has shut down.
var ErrStopped = errors.New("dispatcher stopped")

// HandlerFunc processes one inbound message.
type HandlerFunc func(ctx context.Context, in domain.Input)

type correlationKey struct{}

// CorrelationID returns the id the dispatcher assigned to the input being
// handled, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

type envelope struct {
	id string
	in domain.Input
}

// Dispatcher fans inputs out to a fixed set of workers. Inputs from one
// sender always land on the same shard, so they are handled in arrival
// order while different senders proceed concurrently.
type Dispatcher struct {
	queues []chan envelope
	handle HandlerFunc
	logger *slog.Logger

	mu      sync.RWMutex
	stopped bool

	processed atomic.Int64
}

// NewDispatcher creates a dispatcher with shards workers, each with a
// buffered queue of queueSize.
func NewDispatcher(shards, queueSize int, handle HandlerFunc, logger *slog.Logger) *Dispatcher {
	if shards < 1 {
		shards = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		queues: make([]chan envelope, shards),
		handle: handle,
		logger: logger,
	}
	for i := range d.queues {
		d.queues[i] = make(chan envelope, queueSize)
	}
	return d
}

func (d *Dispatcher) shard(senderID int64) int {
	return int(uint64(senderID) % uint64(len(d.queues)))
}

// Submit queues in for its sender's shard. It blocks while the shard queue
// is full, until ctx is done.
func (d *Dispatcher) Submit(ctx context.Context, in domain.Input) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}

	env := envelope{id: uuid.NewString(), in: in}
	select {
	case d.queues[d.shard(in.Sender.ID)] <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued inputs.
func (d *Dispatcher) Pending() int {
	n := 0
	for _, q := range d.queues {
		n += len(q)
	}
	return n
}

// Processed returns the number of inputs handled so far.
func (d *Dispatcher) Processed() int64 {
	return d.processed.Load()
}

// Run starts the workers and blocks until ctx is done. Queued inputs are
// drained before Run returns; they are handled with a context that is not
// cancelled with ctx.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.RLock()
	stopped := d.stopped
	d.mu.RUnlock()
	if stopped {
		return ErrStopped
	}

	work := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for _, q := range d.queues {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for env := range q {
				d.process(work, env)
			}
		}()
	}

	<-ctx.Done()

	d.mu.Lock()
	d.stopped = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	pending := d.Pending()
	if pending > 0 {
		d.logger.Info("draining queued updates", slog.Int("pending", pending))
	}
	wg.Wait()
	return nil
}

func (d *Dispatcher) process(ctx context.Context, env envelope) {
	defer func() {
		d.processed.Add(1)
		if r := recover(); r != nil {
			d.logger.Error("update handler panicked",
				slog.String("correlation_id", env.id),
				slog.Int64("user_id", env.in.Sender.ID),
				slog.Any("panic", r))
		}
	}()
	d.handle(context.WithValue(ctx, correlationKey{}, env.id), env.in)
}
