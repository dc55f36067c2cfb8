package storage

import "sync"

// Broadcaster fans changes out to subscribers. Each subscriber gets its own
// ordered queue so a slow or re-entrant callback never blocks the writer.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uint64]*subscription)}
}

// Subscribe registers fn and returns a function that cancels the subscription.
// Changes still queued at cancellation are dropped.
func (b *Broadcaster) Subscribe(fn func(Change)) func() {
	sub := newSubscription(fn)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			sub.close()
		})
	}
}

// Publish queues change for every current subscriber.
func (b *Broadcaster) Publish(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		sub.push(change)
	}
}

// Close cancels every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[uint64]*subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

type subscription struct {
	fn     func(Change)
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Change
	closed bool
}

func newSubscription(fn func(Change)) *subscription {
	s := &subscription{fn: fn}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscription) push(change Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, change)
	s.cond.Signal()
}

func (s *subscription) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		change := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.fn(change)
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.cond.Broadcast()
	s.mu.Unlock()
}
