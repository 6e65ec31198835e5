// Package contentcache implements an in-memory TTL cache for generated lesson
// content. Generated explanations are expensive to produce, so they are cached
// per (topic, context, user level) fingerprint and served until expiry.
//
// Key components:
//   - Cache: bounded TTL cache with lazy expiry and oldest-first eviction
//   - Fingerprint: deterministic cache key derivation
package contentcache

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds content cache configuration.
type Config struct {
	// TTL is how long an entry stays servable after being stored.
	TTL time.Duration

	// MaxEntries bounds the cache size. When full, the oldest entry is
	// evicted to make room for a new one.
	MaxEntries int
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		TTL:        30 * time.Minute,
		MaxEntries: 100,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss is returned when the requested key is absent or expired.
	ErrCacheMiss = errors.New("contentcache: key not found")

	// ErrDegradedPayload is returned when a payload looks like a failed
	// generation and is refused, so the failure cannot be replayed from cache.
	ErrDegradedPayload = errors.New("contentcache: payload looks like a generation failure")

	// ErrEmptyPayload is returned when attempting to cache empty content.
	ErrEmptyPayload = errors.New("contentcache: content cannot be empty")
)

// failureSignatures are substrings that identify error-shaped content
// produced by a failed or degraded generation run. Payloads containing any
// of them are never cached.
var failureSignatures = []string{
	"error generating",
	"please try again",
	"unable to generate",
}

// IsFailureShaped reports whether content matches a known generation
// failure signature.
func IsFailureShaped(content string) bool {
	lowered := strings.ToLower(content)
	for _, sig := range failureSignatures {
		if strings.Contains(lowered, sig) {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// FINGERPRINT
// ══════════════════════════════════════════════════════════════════════════════

// fingerprintSeparator joins the key parts. It never appears in normalized
// topics or levels, so distinct inputs cannot collide.
const fingerprintSeparator = "||"

// Fingerprint derives the cache key for a generation request. Topic and
// level are case-insensitive; the free-text context is trimmed but otherwise
// significant, since different contexts yield different explanations.
func Fingerprint(topic, lessonContext, userLevel string) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(topic)),
		strings.TrimSpace(lessonContext),
		strings.ToLower(strings.TrimSpace(userLevel)),
	}
	return strings.Join(parts, fingerprintSeparator)
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE
// ══════════════════════════════════════════════════════════════════════════════

// entry is a single cached payload with its expiry bookkeeping.
type entry struct {
	content   string
	storedAt  time.Time
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
	Expired   int64
	Rejected  int64
}

// Cache is a bounded in-memory TTL cache. Expired entries are removed
// lazily on access, and when the cache is full the entry with the oldest
// store time is evicted. All methods are safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	config  Config
	stats   Stats

	// now is overridable in tests.
	now func() time.Time
}

// New creates a Cache with the given configuration. Non-positive TTL or
// MaxEntries fall back to defaults.
func New(cfg Config) *Cache {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	return &Cache{
		entries: make(map[string]entry),
		config:  cfg,
		now:     time.Now,
	}
}

// Get returns the cached content for key, or ErrCacheMiss if the key is
// absent or its TTL has elapsed. An expired entry is deleted on access.
func (c *Cache) Get(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return "", ErrCacheMiss
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.stats.Expired++
		c.stats.Misses++
		return "", ErrCacheMiss
	}

	c.stats.Hits++
	return e.content, nil
}

// Set stores content under key. Error-shaped payloads are refused so that a
// transient generation failure is retried on the next request instead of
// being served for a full TTL. When the cache is at capacity, the oldest
// entry is evicted first.
func (c *Cache) Set(key, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyPayload
	}
	if IsFailureShaped(content) {
		c.mu.Lock()
		c.stats.Rejected++
		c.mu.Unlock()
		return ErrDegradedPayload
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.config.MaxEntries {
		c.evictOldestLocked()
	}

	now := c.now()
	c.entries[key] = entry{
		content:   content,
		storedAt:  now,
		expiresAt: now.Add(c.config.TTL),
	}
	return nil
}

// Delete removes key from the cache, if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry. Counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the current number of entries, including any that have
// expired but not yet been touched.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// evictOldestLocked removes the entry with the earliest store time.
// Caller must hold c.mu.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, e := range c.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.storedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}
