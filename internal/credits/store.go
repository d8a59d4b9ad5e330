package credits

import (
	"context"
	"sync"
)

// Store holds one integer balance per key. Update and SetNX must be atomic
// per key.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (int, bool, error)
	// SetNX stores v unless the key exists, and returns the resulting value.
	SetNX(ctx context.Context, key string, v int) (int, error)
	// Update replaces the value with fn(current), using def when the key is
	// absent, and returns the new value.
	Update(ctx context.Context, key string, def int, fn func(int) int) (int, error)
}

type memoryStore struct {
	mu    sync.Mutex
	vals  map[string]int
	locks sync.Map // key -> *sync.Mutex
}

func NewMemoryStore() Store {
	return &memoryStore{vals: map[string]int{}}
}

func (m *memoryStore) keyLock(key string) *sync.Mutex {
	l, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func (m *memoryStore) Get(_ context.Context, key string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, v int) (int, error) {
	kl := m.keyLock(key)
	kl.Lock()
	defer kl.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.vals[key]; ok {
		return cur, nil
	}
	m.vals[key] = v
	return v, nil
}

func (m *memoryStore) Update(_ context.Context, key string, def int, fn func(int) int) (int, error) {
	kl := m.keyLock(key)
	kl.Lock()
	defer kl.Unlock()

	m.mu.Lock()
	cur, ok := m.vals[key]
	m.mu.Unlock()
	if !ok {
		cur = def
	}
	next := fn(cur)

	m.mu.Lock()
	m.vals[key] = next
	m.mu.Unlock()
	return next, nil
}
