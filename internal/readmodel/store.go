package readmodel

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/domain/catalog"
)

// TimeLayout is the timestamp format used in API payloads.
const TimeLayout = time.RFC3339

var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already registered")
)

// Store is the in-memory state behind the development API. Every accessor
// returns copies; mutation goes through the Update* methods under the lock.
type Store struct {
	mu         sync.RWMutex
	seq        map[string]int64
	users      map[int64]*UserReadModel
	categories map[int64]catalog.Category
	products   map[int64]catalog.Product
	carts      map[int64]*CartReadModel // userID -> cart
	orders     map[int64]*OrderReadModel
	revoked    map[string]time.Time // session token id -> token expiry
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		seq:        make(map[string]int64),
		users:      make(map[int64]*UserReadModel),
		categories: make(map[int64]catalog.Category),
		products:   make(map[int64]catalog.Product),
		carts:      make(map[int64]*CartReadModel),
		orders:     make(map[int64]*OrderReadModel),
		revoked:    make(map[string]time.Time),
		now:        time.Now,
	}
}

// NextID returns the next id for table, starting at 1.
func (s *Store) NextID(table string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextIDLocked(table)
}

func (s *Store) nextIDLocked(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Users

// AddUser stores u with a fresh id. Usernames and emails are unique, emails
// compared case-insensitively.
func (s *Store) AddUser(u UserReadModel) (UserReadModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return UserReadModel{}, ErrUsernameTaken
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return UserReadModel{}, ErrEmailTaken
		}
	}

	u.ID = s.nextIDLocked("users")
	u.CreatedAt = s.now()
	s.users[u.ID] = &u
	return u, nil
}

func (s *Store) GetUser(id int64) (UserReadModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return UserReadModel{}, false
	}
	return *u, true
}

func (s *Store) GetUserByUsername(username string) (UserReadModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return *u, true
		}
	}
	return UserReadModel{}, false
}

// Catalog

func (s *Store) PutCategory(c catalog.Category) catalog.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextIDLocked("categories")
	}
	s.categories[c.ID] = c
	return c
}

func (s *Store) GetCategory(id int64) (catalog.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return c, ok
}

// ListCategories returns categories ordered by id.
func (s *Store) ListCategories() []catalog.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) PutProduct(p catalog.Product) catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextIDLocked("products")
	}
	s.products[p.ID] = p
	return p
}

func (s *Store) GetProduct(id int64) (catalog.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

// ListProducts returns products ordered by id.
func (s *Store) ListProducts() []catalog.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Carts

// GetCart returns the cart of userID, creating an empty one on first access.
func (s *Store) GetCart(userID int64) CartReadModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked(userID).clone()
}

// UpdateCart runs fn on the cart of userID under the store lock. Items fn
// appends without an id are given one.
func (s *Store) UpdateCart(userID int64, fn func(c *CartReadModel) error) (CartReadModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cartLocked(userID)
	if err := fn(c); err != nil {
		return CartReadModel{}, err
	}
	for i := range c.Items {
		if c.Items[i].ID == 0 {
			c.Items[i].ID = s.nextIDLocked("cart_items")
		}
	}
	return c.clone(), nil
}

func (s *Store) cartLocked(userID int64) *CartReadModel {
	c, ok := s.carts[userID]
	if !ok {
		c = &CartReadModel{
			ID:        s.nextIDLocked("carts"),
			User:      userID,
			CreatedAt: s.now().UTC().Format(TimeLayout),
			Items:     []CartItemReadModel{},
		}
		s.carts[userID] = c
	}
	return c
}

// Orders

// AddOrder stores o with a fresh id and returns it.
func (s *Store) AddOrder(o OrderReadModel) OrderReadModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.nextIDLocked("orders")
	for i := range o.Items {
		o.Items[i].ID = s.nextIDLocked("order_items")
	}
	stored := o.clone()
	s.orders[o.ID] = &stored
	return o.clone()
}

func (s *Store) GetOrder(id int64) (OrderReadModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return OrderReadModel{}, false
	}
	return o.clone(), true
}

// UpdateOrder runs fn on order id under the store lock.
func (s *Store) UpdateOrder(id int64, fn func(o *OrderReadModel) error) (OrderReadModel, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return OrderReadModel{}, false, nil
	}
	if err := fn(o); err != nil {
		return OrderReadModel{}, true, err
	}
	return o.clone(), true, nil
}

// ListOrdersByUser returns the orders of userID, oldest first.
func (s *Store) ListOrdersByUser(userID int64) []OrderReadModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]OrderReadModel, 0)
	for _, o := range s.orders {
		if o.User == userID {
			out = append(out, o.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Sessions

// RevokeSession marks a session token id as logged out until it would have
// expired anyway. Expired entries are dropped on the way.
func (s *Store) RevokeSession(tokenID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = expiresAt
}

func (s *Store) IsSessionRevoked(tokenID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[tokenID]
	return ok
}

// Now returns the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}
