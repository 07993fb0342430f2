package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time {
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.t = f.t.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)}
}

func TestGetMissingKey(t *testing.T) {
	c := New(DefaultTTL)
	_, ok := c.Get("nobody|timeline")
	assert.False(t, ok)
}

func TestSetAndGet(t *testing.T) {
	c := New(DefaultTTL)
	key := Key("alice", "timeline", "2024-01-01", "month")

	c.Set(key, 42)
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, 42, got)
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	clk := newFakeClock()
	c := New(30*time.Minute, WithClock(clk.now))
	key := Key("alice", "seasonal")

	c.Set(key, "patterns")

	clk.advance(29 * time.Minute)
	_, ok := c.Get(key)
	assert.True(t, ok, "entry should be servable just inside the TTL")

	clk.advance(1 * time.Minute)
	_, ok = c.Get(key)
	assert.False(t, ok, "entry at exactly the TTL boundary is stale")
}

func TestSetOverwrites(t *testing.T) {
	c := New(DefaultTTL)
	key := Key("alice", "timeline")

	c.Set(key, "old")
	c.Set(key, "new")

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, c.Len())
}

func TestInvalidateSingleUser(t *testing.T) {
	c := New(DefaultTTL)
	c.Set(Key("alice", "timeline", "month"), 1)
	c.Set(Key("alice", "seasonal"), 2)
	c.Set(Key("bob", "timeline", "month"), 3)

	c.Invalidate("alice")

	_, ok := c.Get(Key("alice", "timeline", "month"))
	assert.False(t, ok)
	_, ok = c.Get(Key("alice", "seasonal"))
	assert.False(t, ok)

	got, ok := c.Get(Key("bob", "timeline", "month"))
	require.True(t, ok, "other users' entries must survive")
	assert.Equal(t, 3, got)
}

func TestInvalidateDoesNotMatchUserPrefixes(t *testing.T) {
	c := New(DefaultTTL)
	c.Set(Key("al", "timeline"), 1)
	c.Set(Key("alice", "timeline"), 2)

	c.Invalidate("al")

	_, ok := c.Get(Key("alice", "timeline"))
	assert.True(t, ok, "invalidating 'al' must not clear 'alice'")
}

func TestInvalidateAll(t *testing.T) {
	c := New(DefaultTTL)
	c.Set(Key("alice", "timeline"), 1)
	c.Set(Key("bob", "timeline"), 2)

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestNewFallsBackToDefaultTTL(t *testing.T) {
	clk := newFakeClock()
	c := New(0, WithClock(clk.now))

	c.Set("u|op", "v")
	clk.advance(DefaultTTL - time.Second)
	_, ok := c.Get("u|op")
	assert.True(t, ok)
}
