package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/ports"
	"go.uber.org/zap"
)

// EventHandler is a function that handles an event.
type EventHandler = ports.EventHandler

type subscription struct {
	id      uint64
	handler EventHandler
}

// EventBus manages the in-process publish-subscribe system.
// It implements ports.EventPublisher.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]subscription
	nextID   uint64
	inflight sync.WaitGroup
	logger   *zap.Logger
}

// Ensure EventBus implements ports.EventPublisher at compile time
var _ ports.EventPublisher = (*EventBus)(nil)

// NewEventBus creates a new EventBus instance
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		handlers: make(map[events.EventType][]subscription),
		logger:   logger,
	}
}

// Subscribe registers a handler for a specific event type.
// Returns an unsubscribe function.
func (eb *EventBus) Subscribe(eventType events.EventType, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.handlers[eventType] = append(eb.handlers[eventType], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() {
			eb.mu.Lock()
			defer eb.mu.Unlock()

			subs := eb.handlers[eventType]
			for i, s := range subs {
				if s.id == id {
					eb.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish runs every handler of eventType in registration order and stops at
// the first error.
func (eb *EventBus) Publish(ctx context.Context, eventType events.EventType, payload interface{}) error {
	eb.mu.RLock()
	subs := eb.handlers[eventType]
	eb.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler(ctx, payload); err != nil {
			return fmt.Errorf("event handler error for %s: %w", eventType, err)
		}
	}
	return nil
}

// PublishAsync publishes on a new goroutine. The request context's values are
// kept but its cancellation is not, so handlers outlive the request.
func (eb *EventBus) PublishAsync(ctx context.Context, eventType events.EventType, payload interface{}) {
	eb.inflight.Add(1)
	go func() {
		defer eb.inflight.Done()
		if err := eb.Publish(context.WithoutCancel(ctx), eventType, payload); err != nil {
			eb.logger.Warn("async event publish failed", zap.String("event", eventType.String()), zap.Error(err))
		}
	}()
}

// Wait blocks until all async publishes have finished.
func (eb *EventBus) Wait() {
	eb.inflight.Wait()
}

// HandlerCount returns the number of handlers registered for eventType.
func (eb *EventBus) HandlerCount(eventType events.EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// Clear removes all handlers (useful for testing)
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers = make(map[events.EventType][]subscription)
}
