package events

import (
	"context"
	"sync"

	"homeserve_backend/platform/logger"
)

// InMemoryBus is a simple in-process implementation of Bus.
// Subscriptions happen at startup; publishing is safe for concurrent use.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the named event.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all handlers asynchronously.
// Handler errors are logged, not propagated to the publisher.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	registered := b.handlers[event.EventName()]
	b.mu.RUnlock()

	for _, handler := range registered {
		go func(h Handler) {
			if err := h.Handle(context.WithoutCancel(ctx), event); err != nil && b.log != nil {
				b.log.Error("event handler failed", "event", event.EventName(), "error", err)
			}
		}(handler)
	}
}

// PublishSync dispatches the event and waits for every handler.
// The first handler error is returned; remaining handlers still run.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	registered := b.handlers[event.EventName()]
	b.mu.RUnlock()

	var firstErr error
	for _, handler := range registered {
		if err := handler.Handle(ctx, event); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if b.log != nil {
				b.log.Error("event handler failed", "event", event.EventName(), "error", err)
			}
		}
	}
	return firstErr
}
