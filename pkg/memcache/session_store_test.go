package mem

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTTLStoreSlidingExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewTTLStore[string](10 * time.Minute).WithClock(clock.now)

	s.Set("a", "alpha")
	clock.advance(8 * time.Minute)
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", v)

	// The read above pushed the deadline out.
	clock.advance(8 * time.Minute)
	_, ok = s.Get("a")
	assert.True(t, ok)

	clock.advance(11 * time.Minute)
	_, ok = s.Get("a")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestTTLStoreSweepAndValues(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewTTLStore[int](time.Minute).WithClock(clock.now)

	s.Set("old", 1)
	clock.advance(45 * time.Second)
	s.Set("new", 2)
	clock.advance(30 * time.Second)

	assert.Equal(t, []int{2}, s.Values())
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Sweep())

	s.Delete("new")
	assert.Empty(t, s.Values())
}

func TestTTLStoreLockSerialisesPerKey(t *testing.T) {
	s := NewTTLStore[[]int](time.Hour)
	s.Set("k", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock, ok := s.Lock("k")
			if !ok {
				t.Error("lock on a live key refused")
				return
			}
			defer unlock()
			v, _ := s.Get("k")
			s.Set("k", append(v, i))
		}(i)
	}
	wg.Wait()

	v, ok := s.Get("k")
	require.True(t, ok)
	sort.Ints(v)
	require.Len(t, v, 50)
	assert.Equal(t, 0, v[0])
	assert.Equal(t, 49, v[49])

	// Other keys are not blocked by a held lock.
	s.Set("other", nil)
	unlock, ok := s.Lock("k")
	require.True(t, ok)
	defer unlock()
	done := make(chan struct{})
	go func() {
		if unlockOther, ok := s.Lock("other"); ok {
			unlockOther()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another key blocked")
	}
}

func countLocks[V any](s *TTLStore[V]) int {
	n := 0
	s.locks.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestTTLStoreLocksDoNotOutliveValues(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewTTLStore[int](time.Minute).WithClock(clock.now)

	for i := 0; i < 10000; i++ {
		unlock, ok := s.Lock(fmt.Sprintf("unknown-%d", i))
		assert.False(t, ok)
		assert.Nil(t, unlock)
	}
	assert.Zero(t, countLocks(s))

	s.Set("deleted", 1)
	unlock, ok := s.Lock("deleted")
	require.True(t, ok)
	unlock()
	s.Delete("deleted")
	assert.Zero(t, countLocks(s))

	s.Set("expired", 2)
	unlock, ok = s.Lock("expired")
	require.True(t, ok)
	unlock()
	clock.advance(2 * time.Minute)
	_, ok = s.Lock("expired")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Sweep())
	assert.Zero(t, countLocks(s))
}
