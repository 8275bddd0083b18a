package cart

import (
	"context"
	"errors"
	"sync"
)

// ErrSlotEmpty is returned by Slot.Load when nothing is stored under the key.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a durable key-value location for per-session state.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// MemorySlot keeps values in process memory.
type MemorySlot struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte)}
}

func (m *MemorySlot) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemorySlot) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(data))
	copy(v, data)
	m.data[key] = v
	return nil
}

func (m *MemorySlot) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}
