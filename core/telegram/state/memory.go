package state

import "sync"

type memoryStore[V any] struct {
	mu     sync.RWMutex
	values map[int64]V
	create func(userID int64) V
}

// NewMemoryStore constructs a map-backed Store. create builds the value for
// a user seen for the first time.
func NewMemoryStore[V any](create func(userID int64) V) Store[V] {
	return &memoryStore[V]{
		values: make(map[int64]V),
		create: create,
	}
}

func (m *memoryStore[V]) Get(userID int64) V {
	m.mu.RLock()
	v, ok := m.values[userID]
	m.mu.RUnlock()
	if ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[userID]; ok {
		return v
	}
	v = m.create(userID)
	m.values[userID] = v
	return v
}

func (m *memoryStore[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

func (m *memoryStore[V]) Range(fn func(userID int64, v V) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, v := range m.values {
		if !fn(id, v) {
			return
		}
	}
}
