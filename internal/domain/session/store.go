// Package session tracks whether the current execution context is signed in.
// Only the presence of the flag is persisted; credentials travel in the HTTP
// client's cookie jar.
package session

import (
	"fmt"
	"log"
	"sync"

	"github.com/example/ec-storefront/internal/domain/snapshot"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
)

// StorageKey is present while the user is authenticated.
const StorageKey = "isAuthenticated"

const flagValue = "true"

type Store struct {
	mu            sync.Mutex
	kv            storage.KeyValue
	authenticated bool
	listeners     snapshot.Listeners
}

func NewStore(kv storage.KeyValue) *Store {
	s := &Store{kv: kv}
	if err := s.Sync(); err != nil {
		log.Printf("[Session] Starting unauthenticated: %v", err)
	}
	return s
}

// Login marks the context authenticated and persists the flag.
func (s *Store) Login() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = true
	if err := s.kv.Set(StorageKey, flagValue); err != nil {
		log.Printf("[Session] Failed to persist login: %v", err)
		return fmt.Errorf("failed to persist login: %w", err)
	}
	return nil
}

// Logout clears the flag and removes the persisted key.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	if err := s.kv.Remove(StorageKey); err != nil {
		log.Printf("[Session] Failed to persist logout: %v", err)
		return fmt.Errorf("failed to persist logout: %w", err)
	}
	return nil
}

// Sync re-derives the flag from the medium. Any stored value counts as
// authenticated; a read failure leaves the flag unchanged.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok, err := s.kv.Get(StorageKey)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", StorageKey, err)
	}
	s.authenticated = ok
	return nil
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *Store) OnExternalChange(fn func()) (unsubscribe func()) {
	return s.listeners.Add(fn)
}

// HandleExternalChange re-syncs when another context logs in or out.
func (s *Store) HandleExternalChange(change storage.Change) {
	if change.Key != StorageKey {
		return
	}
	if err := s.Sync(); err != nil {
		log.Printf("[Session] Failed to sync after change from %s: %v", change.Origin, err)
	}
	s.listeners.Notify()
}
