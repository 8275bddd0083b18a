package cart

import (
	"context"
	"sync"
)

// Service opens session carts over a shared slot and fans their change
// notifications out to service-wide listeners.
type Service struct {
	slot Slot

	mu        sync.RWMutex
	listeners []func(sessionID string, snap Snapshot)
}

func NewService(slot Slot) *Service {
	return &Service{slot: slot}
}

// Slot exposes the backing slot so other per-session state can share it.
func (s *Service) Slot() Slot {
	return s.slot
}

// OnChange registers fn for changes of any cart opened through the service.
func (s *Service) OnChange(fn func(sessionID string, snap Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) Open(ctx context.Context, sessionID string) *Store {
	store := Open(ctx, s.slot, sessionID)

	s.mu.RLock()
	listeners := append([]func(string, Snapshot){}, s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn := fn
		store.Subscribe(func(snap Snapshot) { fn(sessionID, snap) })
	}

	return store
}
