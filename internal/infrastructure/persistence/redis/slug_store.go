package redis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SuWh1/InternAI-sub001/internal/domain/lesson"
	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SLUG STORE
// Durable slug to lesson identity mapping. Entries never expire: a roadmap
// link shared months later must still resolve.
// ══════════════════════════════════════════════════════════════════════════════

// SlugStore implements lesson.IdentityStore on Redis.
type SlugStore struct {
	cache  *Cache
	logger *slog.Logger
}

// NewSlugStore creates a SlugStore.
func NewSlugStore(cache *Cache, logger *slog.Logger) *SlugStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlugStore{
		cache:  cache,
		logger: logger,
	}
}

// Get returns the identity stored under slug. A corrupt stored value is
// treated as a miss, not a failure: the caller falls back to structural
// slug parsing and rewrites the entry.
func (s *SlugStore) Get(ctx context.Context, slug string) (*lesson.Identity, error) {
	var identity lesson.Identity
	err := s.cache.Get(ctx, PrefixLesson+slug, &identity)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrLessonNotFound
		}
		if errors.Is(err, ErrCacheSerialization) {
			s.logger.Warn("corrupt lesson identity, treating as missing", "slug", slug, "error", err)
			return nil, shared.ErrLessonNotFound
		}
		return nil, err
	}
	if identity.Slug == "" {
		// Older records were stored without the slug field.
		identity.Slug = slug
	}
	return &identity, nil
}

// Put stores the identity under its slug, replacing any existing entry.
// Last write wins on collision.
func (s *SlugStore) Put(ctx context.Context, identity *lesson.Identity) error {
	return s.cache.Set(ctx, PrefixLesson+identity.Slug, identity, 0)
}

// CleanupLegacyProgress removes keys written by the superseded local-first
// progress cache. Runs at startup and then periodically; failures are
// logged by the caller, never fatal. Returns the number of keys removed.
func (s *SlugStore) CleanupLegacyProgress(ctx context.Context) (int64, error) {
	deleted, err := s.cache.DeleteByPattern(ctx, PrefixLegacyProgress+"*")
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("removed legacy local progress keys", "count", deleted)
	}
	return int64(deleted), nil
}
