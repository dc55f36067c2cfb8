package order

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/domain/catalog"
	"github.com/example/ec-storefront/internal/domain/snapshot"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
)

// StorageKey is the key the order history is persisted under.
const StorageKey = "orders"

// CreatedAtLayout is the ISO-8601 form written to created_at.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid order status")

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusShipped:   true,
	StatusDelivered: true,
	StatusCancelled: true,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return validStatuses[s]
}

// ParseStatus maps user input to a Status. The empty string is pending.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return StatusPending, nil
	}
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Record is one locally kept order.
type Record struct {
	ID        int64           `json:"id"`
	Product   catalog.Product `json:"product"`
	Status    Status          `json:"status"`
	CreatedAt string          `json:"created_at"`
}

// CreatedTime parses CreatedAt.
func (r Record) CreatedTime() (time.Time, error) {
	return time.Parse(time.RFC3339, r.CreatedAt)
}

type Option func(*Store)

// WithClock replaces time.Now as the source of ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is the order history of one execution context.
type Store struct {
	mu        sync.Mutex
	kv        storage.KeyValue
	orders    []Record
	now       func() time.Time
	listeners snapshot.Listeners
}

func NewStore(kv storage.KeyValue, opts ...Option) *Store {
	s := &Store{kv: kv, orders: []Record{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Load(); err != nil {
		log.Printf("[Order] Starting with fallback state: %v", err)
	}
	return s
}

// AddOrder appends a record for product and persists the history. An empty
// status means pending.
//
// The id is the creation time in milliseconds, bumped past the highest id
// already held so two orders placed in the same millisecond stay distinct.
// A plain timestamp id would let such orders collide and make UpdateStatus
// reach only the first; the bump removes that collision within one history.
// Two contexts writing the same medium can still produce equal ids.
func (s *Store) AddOrder(product catalog.Product, status Status) (Record, error) {
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	id := now.UnixMilli()
	for _, r := range s.orders {
		if r.ID >= id {
			id = r.ID + 1
		}
	}

	record := Record{
		ID:        id,
		Product:   product,
		Status:    status,
		CreatedAt: now.Format(CreatedAtLayout),
	}
	s.orders = append(s.orders, record)

	return record, s.saveLocked()
}

// UpdateStatus overwrites the status of the first record with orderID. The
// history is persisted whether or not a record matched; found reports which.
func (s *Store) UpdateStatus(orderID int64, status Status) (found bool, err error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Status = status
			found = true
			break
		}
	}
	if !found {
		log.Printf("[Order] No order %d to update, persisting unchanged history", orderID)
	}

	return found, s.saveLocked()
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Load replaces the in-memory history with the persisted one. See cart.Store.Load
// for the fallback rules.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := snapshot.Load[Record](s.kv, StorageKey)
	if orders == nil {
		return err
	}
	s.orders = orders
	if errors.Is(err, snapshot.ErrCorrupt) {
		log.Printf("[Order] Discarding unreadable order history: %v", err)
	}
	return err
}

// Orders returns a copy of the history in creation order.
func (s *Store) Orders() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.orders))
	copy(out, s.orders)
	return out
}

// Get returns the first record with orderID.
func (s *Store) Get(orderID int64) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.orders {
		if r.ID == orderID {
			return r, true
		}
	}
	return Record{}, false
}

func (s *Store) OnExternalChange(fn func()) (unsubscribe func()) {
	return s.listeners.Add(fn)
}

func (s *Store) HandleExternalChange(change storage.Change) {
	if change.Key != StorageKey {
		return
	}
	if err := s.Load(); err != nil {
		log.Printf("[Order] Failed to reload after change from %s: %v", change.Origin, err)
	}
	s.listeners.Notify()
}

func (s *Store) saveLocked() error {
	if err := snapshot.Save(s.kv, StorageKey, s.orders); err != nil {
		log.Printf("[Order] Failed to persist orders: %v", err)
		return err
	}
	return nil
}
