package contentcache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCache returns a cache with a controllable clock.
func newTestCache(cfg Config) (*Cache, *time.Time) {
	c := New(cfg)
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint("React Hooks", "Week 3 of the roadmap", "intermediate")

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, base, Fingerprint("React Hooks", "Week 3 of the roadmap", "intermediate"))
	})

	t.Run("topic and level are case-insensitive", func(t *testing.T) {
		assert.Equal(t, base, Fingerprint("react hooks", "Week 3 of the roadmap", "INTERMEDIATE"))
	})

	t.Run("context is significant", func(t *testing.T) {
		assert.NotEqual(t, base, Fingerprint("React Hooks", "Week 4 of the roadmap", "intermediate"))
	})

	t.Run("parts do not bleed into each other", func(t *testing.T) {
		assert.NotEqual(t, Fingerprint("a", "b", "c"), Fingerprint("a", "b||c", ""))
	})
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())

	require.NoError(t, c.Set("key", "an explanation of closures"))

	got, err := c.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "an explanation of closures", got)
}

func TestCache_GetMiss(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())

	_, err := c.Get("absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCache_LazyExpiry(t *testing.T) {
	c, now := newTestCache(Config{TTL: 10 * time.Minute, MaxEntries: 10})

	require.NoError(t, c.Set("key", "content"))

	*now = now.Add(9 * time.Minute)
	_, err := c.Get("key")
	require.NoError(t, err, "entry should survive inside its TTL")

	*now = now.Add(2 * time.Minute)
	_, err = c.Get("key")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, c.Len(), "expired entry should be deleted on access")
}

func TestCache_ExpiredEntryStaysUntilTouched(t *testing.T) {
	c, now := newTestCache(Config{TTL: time.Minute, MaxEntries: 10})

	require.NoError(t, c.Set("key", "content"))
	*now = now.Add(2 * time.Minute)

	assert.Equal(t, 1, c.Len(), "expiry is lazy, not background")
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	c, now := newTestCache(Config{TTL: time.Hour, MaxEntries: 3})

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Set(fmt.Sprintf("key-%d", i), "content"))
		*now = now.Add(time.Second)
	}

	require.NoError(t, c.Set("key-3", "content"))

	_, err := c.Get("key-0")
	assert.ErrorIs(t, err, ErrCacheMiss, "oldest entry should be evicted")
	assert.Equal(t, 3, c.Len())

	for i := 1; i <= 3; i++ {
		_, err := c.Get(fmt.Sprintf("key-%d", i))
		assert.NoError(t, err)
	}
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c, now := newTestCache(Config{TTL: time.Hour, MaxEntries: 2})

	require.NoError(t, c.Set("a", "one"))
	*now = now.Add(time.Second)
	require.NoError(t, c.Set("b", "two"))
	*now = now.Add(time.Second)

	require.NoError(t, c.Set("a", "one updated"))

	gotA, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "one updated", gotA)
	_, err = c.Get("b")
	assert.NoError(t, err, "overwriting an existing key must not evict")
}

func TestCache_RefusesFailureShapedPayloads(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())

	payloads := []string{
		"Error generating content for this lesson.",
		"Something went wrong. Please try again later.",
		"We were unable to generate an explanation.",
	}

	for _, payload := range payloads {
		err := c.Set("key", payload)
		assert.ErrorIs(t, err, ErrDegradedPayload, payload)
	}

	_, err := c.Get("key")
	assert.ErrorIs(t, err, ErrCacheMiss, "refused payloads must not be cached")
	assert.Equal(t, int64(len(payloads)), c.Stats().Rejected)
}

func TestCache_RefusesEmptyPayload(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())

	assert.ErrorIs(t, c.Set("key", ""), ErrEmptyPayload)
	assert.ErrorIs(t, c.Set("key", "   "), ErrEmptyPayload)
}

func TestCache_Stats(t *testing.T) {
	c, now := newTestCache(Config{TTL: time.Minute, MaxEntries: 10})

	require.NoError(t, c.Set("key", "content"))

	_, _ = c.Get("key")
	_, _ = c.Get("missing")
	*now = now.Add(2 * time.Minute)
	_, _ = c.Get("key")

	s := c.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(2), s.Misses)
	assert.Equal(t, int64(1), s.Expired)
	assert.Equal(t, 0, s.Entries)
}

func TestCache_Clear(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())

	require.NoError(t, c.Set("a", "one"))
	require.NoError(t, c.Set("b", "two"))
	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, err := c.Get("a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
