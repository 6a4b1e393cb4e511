package workflow

import "sync"

// ProductLocks serializes order placement per product slug. Orchestrators
// sharing one ProductLocks place orders for the same product one at a time,
// so the stock read before and after an order differs only by that order.
type ProductLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewProductLocks returns an empty lock set.
func NewProductLocks() *ProductLocks {
	return &ProductLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for slug and returns its release.
func (l *ProductLocks) Lock(slug string) (unlock func()) {
	l.mu.Lock()
	m, ok := l.locks[slug]
	if !ok {
		m = &sync.Mutex{}
		l.locks[slug] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
