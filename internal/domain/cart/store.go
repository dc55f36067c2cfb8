package cart

import (
	"errors"
	"log"
	"sync"

	"github.com/example/ec-storefront/internal/domain/catalog"
	"github.com/example/ec-storefront/internal/domain/snapshot"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
)

// StorageKey is the key the cart collection is persisted under.
const StorageKey = "cartItems"

// Line is one product in the cart. Product is a snapshot taken when the line
// was first added.
type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Store is the cart of one execution context. Every mutator re-serialises the
// full collection to the medium; a failed write is returned but the
// in-memory change is kept.
type Store struct {
	mu        sync.Mutex
	kv        storage.KeyValue
	items     []Line
	listeners snapshot.Listeners
}

// NewStore builds a cart and loads any collection already persisted in kv.
// Unreadable state is logged and the cart starts empty.
func NewStore(kv storage.KeyValue) *Store {
	s := &Store{kv: kv, items: []Line{}}
	if err := s.Load(); err != nil {
		log.Printf("[Cart] Starting with fallback state: %v", err)
	}
	return s
}

// Add increments the quantity of the line holding product, or appends a new
// line. Quantity is not validated.
func (s *Store) Add(product catalog.Product, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.items {
		if s.items[i].Product.ID == product.ID {
			s.items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		s.items = append(s.items, Line{Product: product, Quantity: quantity})
	}

	return s.saveLocked()
}

// Remove drops every line for productID. Removing an absent product still
// persists the unchanged collection.
func (s *Store) Remove(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	for _, line := range s.items {
		if line.Product.ID != productID {
			kept = append(kept, line)
		}
	}
	s.items = kept

	return s.saveLocked()
}

// Clear empties the cart.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []Line{}
	return s.saveLocked()
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Load replaces the in-memory collection with the persisted one. A corrupt
// value empties the cart and returns an error wrapping snapshot.ErrCorrupt; a
// read failure leaves the cart untouched.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := snapshot.Load[Line](s.kv, StorageKey)
	if items == nil {
		return err
	}
	s.items = items
	if errors.Is(err, snapshot.ErrCorrupt) {
		log.Printf("[Cart] Discarding unreadable cart: %v", err)
	}
	return err
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.items))
	copy(out, s.items)
	return out
}

// Count returns the sum of quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, line := range s.items {
		n += line.Quantity
	}
	return n
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, line := range s.items {
		total = total.Add(line.Subtotal())
	}
	return total
}

// OnExternalChange registers fn to run after the cart has been reloaded
// because another context rewrote it.
func (s *Store) OnExternalChange(fn func()) (unsubscribe func()) {
	return s.listeners.Add(fn)
}

// HandleExternalChange reloads the cart when change touches its key. It is
// meant to be passed to storage.Feed.Subscribe.
func (s *Store) HandleExternalChange(change storage.Change) {
	if change.Key != StorageKey {
		return
	}
	if err := s.Load(); err != nil {
		log.Printf("[Cart] Failed to reload after change from %s: %v", change.Origin, err)
	}
	s.listeners.Notify()
}

func (s *Store) saveLocked() error {
	if err := snapshot.Save(s.kv, StorageKey, s.items); err != nil {
		log.Printf("[Cart] Failed to persist cart: %v", err)
		return err
	}
	return nil
}
