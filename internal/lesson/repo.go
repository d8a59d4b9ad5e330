package lesson

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store persists lessons. Get returns ErrNotFound for unknown ids; any other
// error means the backing store itself failed.
type Store interface {
	Get(ctx context.Context, id int64) (Lesson, error)
	List(ctx context.Context, opts ListOpts) ([]Lesson, error) // by order_index, then id
	Create(ctx context.Context, l Lesson) (Lesson, error)
	Update(ctx context.Context, l Lesson) (Lesson, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type memoryStore struct {
	mu      sync.RWMutex
	lessons map[int64]Lesson
	nextID  int64
}

func NewInMemoryStore() Store {
	return &memoryStore{lessons: map[int64]Lesson{}, nextID: 1}
}

func (m *memoryStore) Get(_ context.Context, id int64) (Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lessons[id]
	if !ok {
		return Lesson{}, ErrNotFound
	}
	return l, nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Lesson, 0, len(m.lessons))
	for _, l := range m.lessons {
		if opts.PublishedOnly && !l.IsPublished {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) Create(_ context.Context, l Lesson) (Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().Unix()
	l.ID = m.nextID
	m.nextID++
	l.CreatedAt, l.UpdatedAt = now, now
	m.lessons[l.ID] = l
	return l, nil
}

func (m *memoryStore) Update(_ context.Context, l Lesson) (Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.lessons[l.ID]
	if !ok {
		return Lesson{}, ErrNotFound
	}
	l.CreatedAt = cur.CreatedAt
	l.UpdatedAt = time.Now().Unix()
	m.lessons[l.ID] = l
	return l, nil
}

func (m *memoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lessons[id]; !ok {
		return ErrNotFound
	}
	delete(m.lessons, id)
	return nil
}

func (m *memoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lessons), nil
}
