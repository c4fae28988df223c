package events

import (
	"context"
	"log/slog"
	"sync"
)

const defaultDispatchBuffer = 256

// Dispatcher hands events to a sink on its own goroutine, preserving order.
// Notify never blocks: when the buffer is full the event is dropped.
type Dispatcher struct {
	sink   Notifier
	logger *slog.Logger
	queue  chan Event

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// NewDispatcher creates a dispatcher. A non-positive buffer uses the default.
func NewDispatcher(sink Notifier, buffer int, logger *slog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultDispatchBuffer
	}
	return &Dispatcher{
		sink:   sink,
		logger: logger.With("component", "dispatcher"),
		queue:  make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

// Run delivers queued events until Stop is called and the queue drains.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for event := range d.queue {
		d.sink.Notify(ctx, event)
	}
}

func (d *Dispatcher) Notify(_ context.Context, event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return
	}

	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event queue full, dropping event", "event", event.Type, "session.id", event.SessionID)
	}
}

// Stop closes the queue and waits for Run to deliver what is left.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}
