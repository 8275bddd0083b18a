package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// Store is one session's cart. Every change is written to the slot before it
// becomes visible; a failed write leaves the cart as it was.
type Store struct {
	mu          sync.Mutex
	key         string
	slot        Slot
	items       []Item
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

func slotKey(sessionID string) string {
	return "cart:" + sessionID
}

// Open rehydrates the cart of sessionID. Missing or unreadable data yields an
// empty cart.
func Open(ctx context.Context, slot Slot, sessionID string) *Store {
	s := &Store{
		key:         slotKey(sessionID),
		slot:        slot,
		items:       make([]Item, 0),
		subscribers: make(map[int]func(Snapshot)),
	}

	data, err := slot.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrSlotEmpty) {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("cart: failed to load stored cart, starting empty")
		}
		return s
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Msg("cart: discarding corrupt stored cart")
		return s
	}

	for _, it := range items {
		if it.ProductID == uuid.Nil || it.Quantity < 1 || it.Price < 0 {
			log.Debug().Str("session_id", sessionID).Msg("cart: discarding stored cart with invalid lines")
			return s
		}
	}

	s.items = items
	return s
}

// Subscribe registers fn to receive a snapshot after every committed change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Add merges quantity into the line for (product, size) or appends a new line
// snapshotting the product. Stock is not checked.
func (s *Store) Add(ctx context.Context, p Product, quantity int, size, color string) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	return s.apply(ctx, func(items []Item) ([]Item, bool) {
		return addItem(items, p, quantity, size, color), true
	})
}

// Remove deletes the line for (productID, size). A missing line is not an error.
func (s *Store) Remove(ctx context.Context, productID uuid.UUID, size string) error {
	return s.apply(ctx, func(items []Item) ([]Item, bool) {
		return removeItem(items, productID, size)
	})
}

// UpdateQuantity sets the quantity of the line for (productID, size).
// Quantities below 1 are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID uuid.UUID, size string, quantity int) error {
	if quantity < 1 {
		return nil
	}

	return s.apply(ctx, func(items []Item) ([]Item, bool) {
		return setQuantity(items, productID, size, quantity)
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.slot.Delete(ctx, s.key); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("cart: failed to clear: %w", err)
	}
	s.items = make([]Item, 0)
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return nil
}

func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Count(s.items)
}

func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.items)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.items)
}

func (s *Store) apply(ctx context.Context, change func([]Item) ([]Item, bool)) error {
	s.mu.Lock()

	next, changed := change(s.items)
	if !changed {
		s.mu.Unlock()
		return nil
	}

	data, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("cart: failed to encode: %w", err)
	}

	if err := s.slot.Save(ctx, s.key, data); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("cart: failed to persist: %w", err)
	}

	s.items = next
	snap, subs := s.snapshotLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return nil
}

func (s *Store) snapshotLocked() (Snapshot, []func(Snapshot)) {
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return snapshotOf(s.items), subs
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
