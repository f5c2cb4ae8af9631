package resilience

import "sync"

// KeyedLock provides non-blocking mutual exclusion per key. A second
// TryAcquire for a held key fails immediately instead of queuing, which is
// the behavior the budget governor needs: a concurrent check against the
// same caller+project must be rejected, never serialized behind the first.
//
// Keys are created on demand and removed on release, so unrelated keys
// never contend with each other and the map does not grow unbounded.
type KeyedLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewKeyedLock creates an empty keyed lock.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{held: make(map[string]struct{})}
}

// TryAcquire attempts to take the lock for key. It returns false without
// blocking when the key is already held.
func (l *KeyedLock) TryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// Release frees the lock for key. Releasing a key that is not held is a
// no-op so callers can release unconditionally in a defer.
func (l *KeyedLock) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

// Held reports whether key is currently locked.
func (l *KeyedLock) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, taken := l.held[key]
	return taken
}
