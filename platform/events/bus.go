// Package events provides event bus infrastructure.
package events

import (
	"context"
	"sync"

	"gids_backend/platform/logger"

	"go.uber.org/multierr"
)

// InMemoryBus is a simple in-process event bus. Async Publish detaches from
// the request context so handlers outlive the originating HTTP request.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
	wg       sync.WaitGroup
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers asynchronously.
// Handler errors are logged, not propagated.
func (b *InMemoryBus) Publish(_ context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.EventName()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		handler := h
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer b.recoverPanic(event.EventName())
			if err := handler.Handle(context.Background(), event); err != nil && b.log != nil {
				b.log.Error("event handler failed", "event", event.EventName(), "error", err)
			}
		}()
	}
}

// PublishSync dispatches the event and waits for all handlers, collecting errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.EventName()]...)
	b.mu.RUnlock()

	var combined error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			combined = multierr.Append(combined, err)
		}
	}
	return combined
}

// Wait blocks until all in-flight async handlers complete. Used on shutdown.
func (b *InMemoryBus) Wait() {
	b.wg.Wait()
}

func (b *InMemoryBus) recoverPanic(eventName string) {
	if r := recover(); r != nil && b.log != nil {
		b.log.Error("event handler panicked", "event", eventName, "panic", r)
	}
}

var _ Bus = (*InMemoryBus)(nil)
