package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCacheEvictsOldest(t *testing.T) {
	var evicted []string
	c := NewLRUCache[int](2, time.Hour).OnEvict(func(key string, _ int) {
		evicted = append(evicted, key)
	})

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a") // a becomes most recent
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCacheGetOrCreateSlidingExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[*int](10, time.Minute).WithClock(clock.Now)

	created := 0
	create := func() *int { created++; v := created; return &v }

	first := c.GetOrCreate("s1", create)
	clock.Advance(45 * time.Second)
	assert.Same(t, first, c.GetOrCreate("s1", create))

	// Touched 45s ago, still alive at 90s from creation.
	clock.Advance(45 * time.Second)
	assert.Same(t, first, c.GetOrCreate("s1", create))

	clock.Advance(2 * time.Minute)
	fresh := c.GetOrCreate("s1", create)
	assert.NotSame(t, first, fresh)
	assert.Equal(t, 2, created)
}

func TestLRUCacheCleanExpired(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.Now)
	c.Set("a", "x")
	c.Set("b", "y")
	clock.Advance(2 * time.Minute)
	c.Set("c", "z")

	assert.Equal(t, 2, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
}

func TestManagerCleanNow(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := NewLRUCache[string](10, time.Second).WithClock(clock.Now)
	c.Set("a", "x")

	m := NewManager()
	m.Register(c)
	m.StartCleanup(time.Hour)
	defer m.Stop()

	clock.Advance(time.Minute)
	assert.Equal(t, 1, m.CleanNow())
}
