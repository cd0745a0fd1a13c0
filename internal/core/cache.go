package core

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memo memoizes computations by string key. Concurrent calls for the same
// missing key share one computation. Errors are returned to every waiter but
// never cached, so the next call retries.
//
// Forget and Reset start a new generation. A computation that began in an
// earlier generation still answers its own callers but is not stored, and
// later callers start a fresh computation instead of joining it.
type Memo[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	gen     uint64
	group   singleflight.Group
}

// NewMemo returns an empty Memo.
func NewMemo[V any]() *Memo[V] {
	return &Memo[V]{entries: make(map[string]V)}
}

// Get returns the cached value for key, computing it with fn on a miss.
func (m *Memo[V]) Get(key string, fn func() (V, error)) (V, error) {
	m.mu.RLock()
	v, ok := m.entries[key]
	gen := m.gen
	m.mu.RUnlock()
	if ok {
		return v, nil
	}

	flight := strconv.FormatUint(gen, 10) + "\x00" + key
	res, err, _ := m.group.Do(flight, func() (any, error) {
		m.mu.RLock()
		v, ok := m.entries[key]
		m.mu.RUnlock()
		if ok {
			return v, nil
		}

		v, err := fn()
		if err != nil {
			return v, err
		}

		m.mu.Lock()
		if m.gen == gen {
			m.entries[key] = v
		}
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Peek returns the cached value for key without computing it.
func (m *Memo[V]) Peek(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

// Forget drops the cached value for key. In-flight computations of any key
// will not be stored.
func (m *Memo[V]) Forget(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.gen++
	m.mu.Unlock()
}

// Reset drops every cached value and discards in-flight computations.
func (m *Memo[V]) Reset() {
	m.mu.Lock()
	m.entries = make(map[string]V)
	m.gen++
	m.mu.Unlock()
}

// Len returns the number of cached values.
func (m *Memo[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
