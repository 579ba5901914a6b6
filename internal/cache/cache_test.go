package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced manually by tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNew_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, New(0).TTL())
	assert.Equal(t, DefaultTTL, New(-time.Second).TTL())
	assert.Equal(t, 2*time.Minute, New(2*time.Minute).TTL())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "GET:/projects/123/scenarios", Key("get", "/projects/123/scenarios"))
	assert.NotEqual(t, Key("GET", "/a?x=1&y=2"), Key("GET", "/a?y=2&x=1"))
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	c := New(time.Minute)
	key := Key("GET", "/projects")

	c.Set(key, []byte(`{"data":[]}`))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, `{"data":[]}`, string(got))
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(120*time.Second, WithClock(clock.Now))
	key := Key("GET", "/projects/1")

	c.Set(key, []byte("v"))

	clock.Advance(120 * time.Second)
	_, ok := c.Get(key)
	assert.True(t, ok, "entry is still fresh exactly at the TTL boundary")

	clock.Advance(time.Second)
	_, ok = c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is evicted on read")
}

func TestCache_SetResetsAge(t *testing.T) {
	clock := newFakeClock()
	c := New(10*time.Second, WithClock(clock.Now))
	key := Key("GET", "/projects/1")

	c.Set(key, []byte("old"))
	clock.Advance(8 * time.Second)
	c.Set(key, []byte("new"))
	clock.Advance(8 * time.Second)

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "new", string(got))
}

func TestCache_Invalidate(t *testing.T) {
	c := New(time.Hour)
	key := Key("GET", "/projects/1")
	c.Set(key, []byte("v"))

	assert.True(t, c.Invalidate(key))
	_, ok := c.Get(key)
	assert.False(t, ok)

	assert.False(t, c.Invalidate(key), "missing key is a no-op")
}

func TestCache_InvalidateMatching(t *testing.T) {
	c := New(time.Hour)
	c.Set(Key("GET", "/projects/1/scenarios/find_by_tags?key=a"), []byte("a"))
	c.Set(Key("GET", "/projects/1/scenarios/find_by_tags?key=b"), []byte("b"))
	c.Set(Key("GET", "/projects/1/folders"), []byte("f"))

	removed := c.InvalidateMatching("find_by_tags")

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(Key("GET", "/projects/1/folders"))
	assert.True(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := New(time.Hour)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(time.Hour)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key("GET", "/projects/1")
			c.Set(key, []byte{byte(i)})
			c.Get(key)
			c.Invalidate(key)
			c.InvalidateMatching("/projects")
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 1)
}
