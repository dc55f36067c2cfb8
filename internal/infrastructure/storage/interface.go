package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrQuotaExceeded is returned by Set when the medium has no room left for the value.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrClosed        = errors.New("storage is closed")
)

// KeyValue is the durable key-value medium the client state stores persist to.
// Calls are synchronous; Get reports absence with ok == false.
type KeyValue interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// Change describes one write to a shared medium, as seen by the other
// execution contexts using it.
type Change struct {
	Key     string    `json:"key"`
	Value   string    `json:"value,omitempty"`
	Removed bool      `json:"removed,omitempty"`
	Origin  string    `json:"origin"`
	At      time.Time `json:"at"`
}

// Feed delivers changes made by other execution contexts.
// Callbacks run on a goroutine owned by the feed, in publish order.
type Feed interface {
	Subscribe(fn func(Change)) (unsubscribe func())
}

// Publisher forwards local writes to other execution contexts.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}
