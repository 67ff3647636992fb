package cache

import (
	"context"
	"sync"
)

// Memory is a process-local Store.
type Memory struct {
	mu   sync.RWMutex
	vecs map[string][]float64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{vecs: make(map[string][]float64)}
}

// Get returns a copy of the stored vector.
func (m *Memory) Get(_ context.Context, key string) ([]float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vecs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), v...), true, nil
}

// Set stores a copy of vec.
func (m *Memory) Set(_ context.Context, key string, vec []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vecs[key] = append([]float64(nil), vec...)
	return nil
}

// Len returns the number of cached vectors.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vecs)
}
