package storage

import (
	"sync"
	"time"
)

// Memory is an in-process medium. Several execution contexts can share one
// Memory through views; a write through one view is announced to the
// subscribers of every other view, the way a browser raises storage events
// in the other tabs but not in the writing one.
type Memory struct {
	mu       sync.RWMutex
	data     map[string]string
	maxBytes int
	changes  *Broadcaster
}

// NewMemory creates an empty medium with no size limit.
func NewMemory() *Memory {
	return &Memory{
		data:    make(map[string]string),
		changes: NewBroadcaster(),
	}
}

// WithQuota limits the total size of keys plus values; Set fails with
// ErrQuotaExceeded once a write would cross it. Zero means no limit.
func (m *Memory) WithQuota(maxBytes int) *Memory {
	m.mu.Lock()
	m.maxBytes = maxBytes
	m.mu.Unlock()
	return m
}

// View returns a handle on the medium tagged with origin.
func (m *Memory) View(origin string) *MemoryView {
	return &MemoryView{medium: m, origin: origin}
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key without an origin.
func (m *Memory) Set(key, value string) error {
	return m.set("", key, value)
}

// Remove deletes key without an origin.
func (m *Memory) Remove(key string) error {
	m.remove("", key)
	return nil
}

// Keys returns the stored keys in no particular order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// Close stops change delivery to every view.
func (m *Memory) Close() error {
	m.changes.Close()
	return nil
}

func (m *Memory) set(origin, key, value string) error {
	m.mu.Lock()
	if m.maxBytes > 0 {
		size := len(key) + len(value)
		for k, v := range m.data {
			if k != key {
				size += len(k) + len(v)
			}
		}
		if size > m.maxBytes {
			m.mu.Unlock()
			return ErrQuotaExceeded
		}
	}
	m.data[key] = value
	m.mu.Unlock()

	m.changes.Publish(Change{Key: key, Value: value, Origin: origin, At: time.Now()})
	return nil
}

func (m *Memory) remove(origin, key string) {
	m.mu.Lock()
	_, existed := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()

	if existed {
		m.changes.Publish(Change{Key: key, Removed: true, Origin: origin, At: time.Now()})
	}
}

// MemoryView is one execution context's handle on a Memory medium.
type MemoryView struct {
	medium *Memory
	origin string
}

func (v *MemoryView) Origin() string { return v.origin }

func (v *MemoryView) Get(key string) (string, bool, error) {
	return v.medium.Get(key)
}

func (v *MemoryView) Set(key, value string) error {
	return v.medium.set(v.origin, key, value)
}

func (v *MemoryView) Remove(key string) error {
	v.medium.remove(v.origin, key)
	return nil
}

// Subscribe delivers changes written through other views of the medium.
func (v *MemoryView) Subscribe(fn func(Change)) func() {
	return v.medium.changes.Subscribe(func(c Change) {
		if c.Origin == v.origin {
			return
		}
		fn(c)
	})
}
