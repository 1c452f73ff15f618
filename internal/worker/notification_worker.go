package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/events"
)

// Push is one real-time delivery request.
type Push struct {
	Topic string
	Event events.Event
}

// DropCounter is notified whenever a push is discarded.
type DropCounter interface {
	PushDropped(reason string)
}

// NotificationWorker delivers pushes off the request path. Enqueue never
// blocks and delivery failures are logged, never returned.
type NotificationWorker struct {
	bus     events.Bus
	logger  *zap.Logger
	queue   chan Push
	workers int
	timeout time.Duration
	drops   DropCounter

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	started bool
}

// Options sizes the worker pool.
type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	Drops     DropCounter
}

// NewNotificationWorker builds a stopped worker.
func NewNotificationWorker(bus events.Bus, logger *zap.Logger, opts Options) *NotificationWorker {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		bus:     bus,
		logger:  logger,
		queue:   make(chan Push, opts.QueueSize),
		workers: opts.Workers,
		timeout: opts.Timeout,
		drops:   opts.Drops,
	}
}

// Start launches the delivery goroutines.
func (w *NotificationWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
}

// Enqueue schedules a push. It reports false when the push was dropped.
func (w *NotificationWorker) Enqueue(push Push) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.drop("stopped", push)
		return false
	}
	select {
	case w.queue <- push:
		return true
	default:
		w.drop("queue_full", push)
		return false
	}
}

// Stop drains queued pushes and waits for the workers, up to ctx.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for push := range w.queue {
		w.deliver(push)
	}
}

func (w *NotificationWorker) deliver(push Push) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.bus.Publish(ctx, push.Topic, push.Event); err != nil {
		w.logger.Warn("real-time push failed",
			zap.String("topic", push.Topic),
			zap.String("event_id", push.Event.ID),
			zap.Int64("ticket_id", push.Event.TicketID),
			zap.Error(err),
		)
		if w.drops != nil {
			w.drops.PushDropped("publish_error")
		}
	}
}

func (w *NotificationWorker) drop(reason string, push Push) {
	w.logger.Warn("real-time push dropped",
		zap.String("reason", reason),
		zap.String("topic", push.Topic),
		zap.Int64("ticket_id", push.Event.TicketID),
	)
	if w.drops != nil {
		w.drops.PushDropped(reason)
	}
}
