package lesson

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IDENTITY STORE
// ══════════════════════════════════════════════════════════════════════════════

// IdentityStore is the durable slug → Identity mapping collaborator.
// Implementations live in infrastructure/persistence.
type IdentityStore interface {
	// Get returns the identity stored under slug, or ErrLessonNotFound.
	Get(ctx context.Context, slug string) (*Identity, error)

	// Put stores an identity under its slug. Last write wins on collision.
	Put(ctx context.Context, identity *Identity) error
}

// ══════════════════════════════════════════════════════════════════════════════
// RESOLVER
// ══════════════════════════════════════════════════════════════════════════════

// Resolver creates and resolves lesson identities. It is the only component
// that writes the slug mapping; it never mutates progress state.
type Resolver struct {
	store  IdentityStore
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by the given durable store.
func NewResolver(store IdentityStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// CreateLessonURL derives the slug for (topic, week), stores the full
// identity under it, and returns the lesson path. A failed store write is
// logged but does not block the URL: the slug remains structurally
// parseable as a fallback.
func (r *Resolver) CreateLessonURL(ctx context.Context, topic, lessonContext string, weekNumber int) (string, error) {
	if topic == "" {
		return "", shared.NewDomainError("lesson", "CreateURL", shared.ErrEmptyValue, "topic is required")
	}
	if weekNumber < 1 {
		return "", shared.NewDomainError("lesson", "CreateURL", shared.ErrValueOutOfRange, "week number must be >= 1")
	}

	identity := &Identity{
		Slug:       MakeSlug(topic, weekNumber),
		Topic:      topic,
		Context:    lessonContext,
		WeekNumber: weekNumber,
		CreatedAt:  time.Now().UTC(),
	}

	if err := r.store.Put(ctx, identity); err != nil {
		r.logger.Warn("lesson identity not persisted, slug fallback will apply",
			"slug", identity.Slug, "error", err)
	}

	return fmt.Sprintf("/lesson/%s", identity.Slug), nil
}

// LessonData resolves a slug to its identity. The durable mapping is
// consulted first; on a miss the slug is parsed structurally and the
// reconstruction (with a synthesized context) is written back for future
// hits. Returns ErrLessonNotFound when the slug matches no stored mapping
// and does not parse.
func (r *Resolver) LessonData(ctx context.Context, slug string) (*Identity, error) {
	identity, err := r.store.Get(ctx, slug)
	if err == nil {
		return identity, nil
	}
	if !shared.IsNotFound(err) {
		// Storage trouble is not fatal to resolution; fall through to the
		// structural parse.
		r.logger.Warn("lesson identity lookup failed", "slug", slug, "error", err)
	}

	reconstructed, ok := Reconstruct(slug)
	if !ok {
		return nil, shared.ErrLessonNotFound
	}

	if err := r.store.Put(ctx, reconstructed); err != nil {
		r.logger.Debug("reconstructed identity not written back", "slug", slug, "error", err)
	}

	return reconstructed, nil
}
