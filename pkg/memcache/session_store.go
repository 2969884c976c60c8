package mem

import (
	"sync"
	"time"
)

// Store keeps values in memory for a sliding TTL. Every Get or Set refreshes
// the deadline. Lock serialises work on one live key without blocking
// others; it reports false, and holds nothing, for keys that are absent.
type Store[V any] interface {
	Set(key string, value V)
	Get(key string) (V, bool)
	Delete(key string)
	Values() []V
	Len() int
	Lock(key string) (unlock func(), ok bool)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type TTLStore[V any] struct {
	mu    sync.RWMutex
	data  map[string]entry[V]
	ttl   time.Duration
	now   func() time.Time
	locks sync.Map // key -> *sync.Mutex
}

func NewTTLStore[V any](ttl time.Duration) *TTLStore[V] {
	return &TTLStore[V]{
		data: make(map[string]entry[V]),
		ttl:  ttl,
		now:  time.Now,
	}
}

// WithClock replaces the clock, for tests.
func (s *TTLStore[V]) WithClock(now func() time.Time) *TTLStore[V] {
	s.now = now
	return s
}

func (s *TTLStore[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = entry[V]{value: value, expiresAt: s.now().Add(s.ttl)}
}

func (s *TTLStore[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	e, ok := s.data[key]
	if !ok {
		return zero, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.data, key) // cleanup expired
		s.locks.Delete(key)
		return zero, false
	}
	e.expiresAt = s.now().Add(s.ttl)
	s.data[key] = e
	return e.value, true
}

func (s *TTLStore[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.locks.Delete(key)
}

// Values returns every live value, in no particular order.
func (s *TTLStore[V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]V, 0, len(s.data))
	for _, e := range s.data {
		if now.After(e.expiresAt) {
			continue
		}
		out = append(out, e.value)
	}
	return out
}

func (s *TTLStore[V]) Len() int {
	return len(s.Values())
}

// Sweep drops expired entries and returns how many were removed. Lock
// entries left without a value go with them.
func (s *TTLStore[V]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, k)
			removed++
		}
	}
	s.locks.Range(func(k, _ any) bool {
		if _, ok := s.data[k.(string)]; !ok {
			s.locks.Delete(k)
		}
		return true
	})
	return removed
}

func (s *TTLStore[V]) Lock(key string) (func(), bool) {
	s.mu.RLock()
	if !s.live(key) {
		s.mu.RUnlock()
		return nil, false
	}
	m, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	s.mu.RUnlock()

	mu := m.(*sync.Mutex)
	mu.Lock()

	// The key may have gone while we waited.
	s.mu.RLock()
	ok := s.live(key)
	s.mu.RUnlock()
	if !ok {
		mu.Unlock()
		return nil, false
	}
	return mu.Unlock, true
}

// live reports whether key holds an unexpired value. Callers hold s.mu.
func (s *TTLStore[V]) live(key string) bool {
	e, ok := s.data[key]
	return ok && !s.now().After(e.expiresAt)
}
