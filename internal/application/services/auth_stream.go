package services

import (
	"context"
	"sync"

	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/sdmtech/sdmcrm/internal/domain/ports"
	"go.uber.org/zap"
)

const authStreamBuffer = 8

// AuthStream fans auth-state events out to per-user listeners (the SSE
// endpoint). A listener that falls behind is dropped and its channel closed.
type AuthStream struct {
	mu        sync.Mutex
	listeners map[string]map[chan events.AuthEvent]struct{}
	unsub     []func()
	logger    *zap.Logger
}

// NewAuthStream subscribes to every auth event on bus.
func NewAuthStream(bus ports.EventPublisher, logger *zap.Logger) *AuthStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuthStream{
		listeners: make(map[string]map[chan events.AuthEvent]struct{}),
		logger:    logger,
	}
	for _, t := range []events.EventType{
		events.AuthSignedIn, events.AuthSignedOut, events.AuthPasswordChanged, events.AuthRoleChanged,
	} {
		s.unsub = append(s.unsub, bus.Subscribe(t, s.handle))
	}
	return s
}

func (s *AuthStream) handle(_ context.Context, payload interface{}) error {
	evt, ok := payload.(events.AuthEvent)
	if !ok {
		return nil
	}
	s.broadcast(evt)
	return nil
}

func (s *AuthStream) broadcast(evt events.AuthEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.listeners[evt.UserID] {
		select {
		case ch <- evt:
		default:
			s.logger.Debug("dropping slow auth listener", zap.String("user_id", evt.UserID))
			s.removeLocked(evt.UserID, ch)
		}
	}
}

// Listen registers a listener for userID. The returned cancel function
// unregisters it and closes the channel; it is safe to call more than once.
func (s *AuthStream) Listen(userID string) (<-chan events.AuthEvent, func()) {
	ch := make(chan events.AuthEvent, authStreamBuffer)

	s.mu.Lock()
	if s.listeners[userID] == nil {
		s.listeners[userID] = make(map[chan events.AuthEvent]struct{})
	}
	s.listeners[userID][ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.removeLocked(userID, ch)
	}
}

func (s *AuthStream) removeLocked(userID string, ch chan events.AuthEvent) {
	set, ok := s.listeners[userID]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(s.listeners, userID)
	}
}

// ListenerCount returns the number of open listeners for userID.
func (s *AuthStream) ListenerCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners[userID])
}

// Close unsubscribes from the bus and closes every listener.
func (s *AuthStream) Close() {
	for _, u := range s.unsub {
		u()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, set := range s.listeners {
		for ch := range set {
			s.removeLocked(userID, ch)
		}
	}
}
