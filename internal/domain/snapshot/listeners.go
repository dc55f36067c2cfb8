package snapshot

import "sync"

// Listeners holds the callbacks registered through a store's OnExternalChange.
type Listeners struct {
	mu     sync.Mutex
	fns    map[uint64]func()
	nextID uint64
}

// Add registers fn and returns a function that removes it.
func (l *Listeners) Add(fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[uint64]func())
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.fns, id)
	}
}

// Notify calls every registered callback. Callbacks run outside the lock and
// may add or remove listeners.
func (l *Listeners) Notify() {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
