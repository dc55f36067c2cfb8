// Package snapshot stores a whole collection as one JSON document under a
// single key, and fans out notifications when another execution context
// rewrites that key.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/ec-storefront/internal/infrastructure/storage"
)

// ErrCorrupt marks a persisted value that could not be decoded.
var ErrCorrupt = errors.New("persisted state is corrupt")

// Load decodes the JSON array stored under key.
//
// An absent or empty value yields an empty collection. A value that does not
// decode yields an empty collection together with an error wrapping
// ErrCorrupt, so callers can fall back and still report the problem. A read
// failure from the medium returns a nil collection and the error; callers
// keep their previous state in that case.
func Load[T any](kv storage.KeyValue, key string) ([]T, error) {
	raw, ok, err := kv.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []T{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Save re-serialises the full collection under key. A nil collection is
// written as an empty JSON array.
func Save[T any](kv storage.KeyValue, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := kv.Set(key, string(data)); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}
