package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
)

var (
	// ErrQueueFull is returned when the worker cannot accept more events.
	ErrQueueFull = errors.New("notification queue full")
	// ErrStopped is returned after Stop.
	ErrStopped = errors.New("notification worker stopped")
)

const defaultQueueSize = 256

// NotificationWorker moves event dispatch off the request path. HTTP handlers
// publish into its queue; a single goroutine drains it into the dispatcher.
type NotificationWorker struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	queue      chan events.Event

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewNotificationWorker registers notification handlers on the dispatcher and
// returns an idle worker.
func NewNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationService, logger *zap.Logger, queueSize int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	return &NotificationWorker{
		dispatcher: dispatcher,
		logger:     logger,
		queue:      make(chan events.Event, queueSize),
	}
}

// Start launches the drain loop. Handlers run with ctx.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for event := range w.queue {
			if err := w.dispatcher.Publish(ctx, event); err != nil {
				w.logger.Warn("notification dispatch failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.String("ticket_id", event.TicketID),
					zap.Error(err))
			}
		}
	}()
}

// Publish enqueues an event without blocking.
func (w *NotificationWorker) Publish(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_id", event.ID),
			zap.String("ticket_id", event.TicketID))
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued events to drain.
func (w *NotificationWorker) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
