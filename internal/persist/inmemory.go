package persist

import (
	"context"
	"sync"
)

// MemoryBackend keeps the encoded state in process memory; used for local
// runs without durability and in tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	data    []byte
	saves   int
	SaveErr error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load(_ context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return nil, ErrAbsent
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (b *MemoryBackend) Save(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SaveErr != nil {
		return b.SaveErr
	}
	b.data = make([]byte, len(data))
	copy(b.data, data)
	b.saves++
	return nil
}

// Saves reports how many successful saves happened.
func (b *MemoryBackend) Saves() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saves
}

func (b *MemoryBackend) Mode() string { return BackendMemory }

func (b *MemoryBackend) Close() error { return nil }
