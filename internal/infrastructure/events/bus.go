// Package events provides the in-process domain event bus
package events

import (
	"context"
	"sync"

	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/ports/outbound"
	"go.uber.org/zap"
)

// Wildcard subscribes a handler to every event
const Wildcard = "*"

// Bus dispatches events synchronously to subscribed handlers. A failing
// handler is logged and never fails the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	logger   *zap.Logger
}

// NewBus creates an empty bus
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]shared.EventHandler),
		logger:   logger.Named("events"),
	}
}

var _ outbound.EventBus = (*Bus)(nil)

// Subscribe registers handler for eventName, or for all events with Wildcard
func (b *Bus) Subscribe(eventName string, handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish delivers each event to its handlers in subscription order
func (b *Bus) Publish(ctx context.Context, events ...shared.DomainEvent) {
	for _, event := range events {
		if ctx.Err() != nil {
			return
		}

		b.mu.RLock()
		handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventName()])+len(b.handlers[Wildcard]))
		handlers = append(handlers, b.handlers[event.EventName()]...)
		handlers = append(handlers, b.handlers[Wildcard]...)
		b.mu.RUnlock()

		for _, handle := range handlers {
			b.dispatch(handle, event)
		}
	}
}

func (b *Bus) dispatch(handle shared.EventHandler, event shared.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				zap.String("event", event.EventName()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := handle(event); err != nil {
		b.logger.Error("Event handler failed",
			zap.String("event", event.EventName()),
			zap.Error(err),
		)
	}
}
