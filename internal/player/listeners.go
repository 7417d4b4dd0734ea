package player

import (
	"slices"
	"sync"
)

// Listeners is a set of callbacks keyed by subscription. The zero value is
// ready to use.
type Listeners[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	fns    map[uint64]func(T)
	closed bool
}

// Add registers fn and returns a function that removes it. The returned
// function is idempotent. Adding to a cleared set is a no-op.
func (l *Listeners[T]) Add(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return func() {}
	}
	if l.fns == nil {
		l.fns = make(map[uint64]func(T))
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

// Emit calls every registered listener with v, in subscription order.
// Listeners are called without the lock held.
func (l *Listeners[T]) Emit(v T) {
	l.mu.RLock()
	if len(l.fns) == 0 {
		l.mu.RUnlock()
		return
	}
	ids := make([]uint64, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	fns := make([]func(T), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of registered listeners.
func (l *Listeners[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fns)
}

// Clear removes all listeners and rejects further subscriptions.
func (l *Listeners[T]) Clear() {
	l.mu.Lock()
	l.fns = nil
	l.closed = true
	l.mu.Unlock()
}
