package mocks

import (
	"sync"
)

// MockKeyValue is a mock implementation of storage.KeyValue for testing
type MockKeyValue struct {
	mu   sync.RWMutex
	data map[string]string

	// For tracking calls in tests
	SetCalls    []SetCall
	RemoveCalls []string
	GetErr      error
	SetErr      error
	RemoveErr   error
}

// SetCall records parameters passed to Set
type SetCall struct {
	Key   string
	Value string
}

// NewMockKeyValue creates a new MockKeyValue
func NewMockKeyValue() *MockKeyValue {
	return &MockKeyValue{
		data:     make(map[string]string),
		SetCalls: make([]SetCall, 0),
	}
}

// Get returns the stored value
func (m *MockKeyValue) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores a value in memory
func (m *MockKeyValue) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, SetCall{Key: key, Value: value})
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = value
	return nil
}

// Remove deletes a value
func (m *MockKeyValue) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RemoveCalls = append(m.RemoveCalls, key)
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	delete(m.data, key)
	return nil
}

// Put sets a value directly without recording a call
func (m *MockKeyValue) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// LastSet returns the most recent Set call for key
func (m *MockKeyValue) LastSet(key string) (SetCall, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.SetCalls) - 1; i >= 0; i-- {
		if m.SetCalls[i].Key == key {
			return m.SetCalls[i], true
		}
	}
	return SetCall{}, false
}

// Reset clears all data and recorded calls
func (m *MockKeyValue) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	m.SetCalls = make([]SetCall, 0)
	m.RemoveCalls = nil
	m.GetErr = nil
	m.SetErr = nil
	m.RemoveErr = nil
}
