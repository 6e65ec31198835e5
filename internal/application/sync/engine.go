// Package sync contains the progress sync engine: the single owner of a
// session's in-memory roadmap and progress snapshot. It applies completion
// toggles optimistically, persists the whole progress array remotely, rolls
// back on persist failure, and coalesces background refreshes.
package sync

import (
	"context"
	"errors"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/SuWh1/InternAI-sub001/internal/domain/roadmap"
	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// Generator runs the roadmap generation pipeline.
type Generator interface {
	// GenerateRoadmap produces a personalized roadmap from an onboarding
	// profile. The returned metadata records the model used and whether the
	// result is mock data.
	GenerateRoadmap(ctx context.Context, profile *roadmap.OnboardingProfile) (*roadmap.Roadmap, roadmap.GenerationMetadata, error)
}

// RefreshTrigger coalesces repeated refresh requests. The scheduler's
// debouncer satisfies this.
type RefreshTrigger interface {
	Trigger()
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds sync engine configuration.
type Config struct {
	// GuardWindow is how long after an optimistic apply a week's local
	// progress is protected from being overwritten by a background refresh.
	GuardWindow time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		GuardWindow: 2 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// Engine owns one user session's roadmap and progress snapshot. It is the
// only component that mutates progress; the unlock policy and lesson
// resolver only read it. Safe for concurrent use.
type Engine struct {
	store     roadmap.Store
	generator Generator
	publisher shared.EventPublisher
	logger    *slog.Logger
	config    Config

	mu     gosync.Mutex
	userID string
	state  *roadmap.UserRoadmap
	loaded bool

	// guards holds, per week, the deadline until which a background
	// refresh must not overwrite that week's local progress. Protects an
	// in-flight optimistic toggle from being visibly undone.
	guards map[int]time.Time

	// refreshing rejects overlapping Refresh calls.
	refreshing bool

	refreshTrigger RefreshTrigger

	// now is overridable in tests.
	now func() time.Time
}

// NewEngine creates an Engine. The generator and publisher may be nil when
// the corresponding features are not wired (generation disabled, no bus).
func NewEngine(
	store roadmap.Store,
	generator Generator,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config Config,
) *Engine {
	if config.GuardWindow <= 0 {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     store,
		generator: generator,
		publisher: publisher,
		logger:    logger,
		config:    config,
		guards:    make(map[int]time.Time),
		now:       time.Now,
	}
}

// SetRefreshTrigger wires the debounced refresh entry point. Wiring happens
// after construction because the debouncer's callback needs the engine.
func (e *Engine) SetRefreshTrigger(trigger RefreshTrigger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshTrigger = trigger
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Load fetches the user's roadmap and progress and makes them the session
// snapshot. A missing roadmap is a normal empty state for a new user, not
// an error.
func (e *Engine) Load(ctx context.Context, userID string) error {
	record, err := e.store.Fetch(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			e.logger.Debug("no roadmap yet, starting empty session", "user_id", userID)
			record = &roadmap.UserRoadmap{UserID: userID}
		} else {
			return shared.WrapError("sync", "Load", shared.ErrExternalService, "failed to fetch roadmap", err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.userID = userID
	e.state = record
	e.loaded = true
	e.guards = make(map[int]time.Time)
	return nil
}

// UserID returns the session's user id, empty before Load.
func (e *Engine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// HasRoadmap reports whether the session has a generated roadmap.
func (e *Engine) HasRoadmap() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded && e.state.Roadmap != nil && e.state.Roadmap.TotalWeeks() > 0
}

// Roadmap returns the session's roadmap, or nil when none is loaded. The
// roadmap is immutable, so no copy is needed.
func (e *Engine) Roadmap() *roadmap.Roadmap {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return nil
	}
	return e.state.Roadmap
}

// Progress returns a deep copy of the session's progress array. Callers
// can hold and inspect it without racing the engine.
func (e *Engine) Progress() []roadmap.WeekProgress {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return nil
	}
	return roadmap.CloneProgress(e.state.Progress)
}

// Stats derives roadmap-wide progress statistics from the snapshot.
func (e *Engine) Stats() roadmap.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded || e.state.Roadmap == nil {
		return roadmap.Stats{CurrentWeek: 1, FurthestUnlocked: 1}
	}
	return roadmap.ComputeStats(e.state.Progress, e.state.Roadmap.TotalWeeks())
}

// ValidateNavigation checks whether the user may navigate to a week, using
// the current snapshot. Pure read, no side effects.
func (e *Engine) ValidateNavigation(target int) roadmap.NavigationCheck {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return roadmap.NavigationCheck{Allowed: target == 1}
	}
	return roadmap.ValidateNavigation(target, e.state.Progress)
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION TOGGLE
// ══════════════════════════════════════════════════════════════════════════════

// ToggleResult reports the outcome of a completion toggle.
type ToggleResult struct {
	WeekNumber           int
	ItemID               string
	Completed            bool
	CompletionPercentage int
	WeekCompleted        bool
	Status               TxStatus
}

// ToggleCompletion marks an item complete or incomplete. The mutation is
// applied to the session snapshot first, then the entire progress array is
// persisted. On persist failure the snapshot is restored to its pre-toggle
// state and the error is surfaced; there is no automatic retry.
func (e *Engine) ToggleCompletion(ctx context.Context, weekNumber int, itemID string, completed bool) (*ToggleResult, error) {
	e.mu.Lock()
	if !e.loaded || e.state.Roadmap == nil {
		e.mu.Unlock()
		return nil, shared.ErrNoRoadmapLoaded
	}

	// Locked weeks are rejected synchronously, before any remote call.
	check := roadmap.ValidateNavigation(weekNumber, e.state.Progress)
	if !check.Allowed {
		e.mu.Unlock()
		return nil, shared.WrapError("sync", "Toggle", shared.ErrLocked, check.Error, nil)
	}

	week := e.state.Roadmap.FindWeek(weekNumber)
	if week == nil {
		e.mu.Unlock()
		return nil, shared.ErrWeekNotFound
	}
	totals := roadmap.ItemTotals{
		Tasks:     len(week.Tasks),
		Subtopics: len(week.Subtopics),
	}

	tx := Begin(e.state.Progress, weekNumber, itemID)
	target := roadmap.FindWeekProgress(tx.Next, weekNumber)
	if target == nil {
		tx.Next = append(tx.Next, roadmap.WeekProgress{
			WeekNumber: weekNumber,
			TotalTasks: len(week.Tasks),
		})
		roadmap.SortProgress(tx.Next)
		target = roadmap.FindWeekProgress(tx.Next, weekNumber)
	}

	wasCompleted := target.CompletionPercentage == 100
	if err := target.Toggle(itemID, completed, totals); err != nil {
		e.mu.Unlock()
		return nil, err
	}

	// Optimistic apply: the snapshot reflects the toggle before the
	// persist call is issued.
	tx.MarkApplied()
	e.state.Progress = tx.Next
	e.guards[weekNumber] = e.now().Add(e.config.GuardWindow)
	userID := e.userID
	e.mu.Unlock()

	if err := e.store.SaveProgress(ctx, userID, roadmap.CloneProgress(tx.Next)); err != nil {
		previous := tx.MarkRolledBack()
		e.mu.Lock()
		e.state.Progress = previous
		delete(e.guards, weekNumber)
		e.mu.Unlock()

		e.logger.Warn("persist failed, progress rolled back",
			"user_id", userID,
			"week", weekNumber,
			"item_id", itemID,
			"error", err,
		)
		e.publish(shared.NewProgressRevertedEvent(userID, weekNumber, itemID, err.Error()))
		return nil, shared.WrapError("sync", "Persist", shared.ErrExternalService, "failed to save progress", err)
	}
	tx.MarkConfirmed()

	e.publish(shared.NewTaskToggledEvent(userID, weekNumber, itemID, completed, target.CompletionPercentage))
	if !wasCompleted && target.CompletionPercentage == 100 {
		e.publish(shared.NewWeekCompletedEvent(userID, weekNumber, weekNumber+1, len(target.CompletedTasks)))
	}

	// Opportunistic reconciliation with the remote store. Not required for
	// correctness of the snapshot already applied.
	e.RequestRefresh()

	return &ToggleResult{
		WeekNumber:           weekNumber,
		ItemID:               itemID,
		Completed:            completed,
		CompletionPercentage: target.CompletionPercentage,
		WeekCompleted:        target.CompletionPercentage == 100,
		Status:               tx.Status,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH
// ══════════════════════════════════════════════════════════════════════════════

// RequestRefresh asks for a background refresh through the debounced
// trigger. Rapid repeated requests collapse into one Refresh call. No-op
// when no trigger is wired.
func (e *Engine) RequestRefresh() {
	e.mu.Lock()
	trigger := e.refreshTrigger
	e.mu.Unlock()
	if trigger != nil {
		trigger.Trigger()
	}
}

// Refresh re-fetches the remote roadmap and progress and replaces the
// session snapshot. Weeks inside their guard window keep their local
// progress so an in-flight optimistic toggle is not visibly undone.
// Overlapping calls are dropped, not queued.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return shared.ErrNoRoadmapLoaded
	}
	if e.refreshing {
		e.mu.Unlock()
		e.logger.Debug("refresh already in flight, skipping")
		return nil
	}
	e.refreshing = true
	userID := e.userID
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.refreshing = false
		e.mu.Unlock()
	}()

	record, err := e.store.Fetch(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			e.logger.Debug("refresh found no roadmap", "user_id", userID)
			return nil
		}
		return shared.WrapError("sync", "Refresh", shared.ErrExternalService, "failed to fetch roadmap", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	for weekNumber, deadline := range e.guards {
		if !now.Before(deadline) {
			delete(e.guards, weekNumber)
			continue
		}
		local := roadmap.FindWeekProgress(e.state.Progress, weekNumber)
		remote := roadmap.FindWeekProgress(record.Progress, weekNumber)
		if local == nil {
			continue
		}
		if remote == nil {
			record.Progress = append(record.Progress, *local)
			roadmap.SortProgress(record.Progress)
		} else {
			*remote = *local
		}
	}

	e.state = record
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROADMAP GENERATION
// ══════════════════════════════════════════════════════════════════════════════

// PipelineStatus reports whether the generation pipeline can run for the
// session's user, based on their onboarding profile.
func (e *Engine) PipelineStatus(ctx context.Context) (roadmap.PipelineStatus, error) {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return roadmap.PipelineStatus{}, shared.ErrNoRoadmapLoaded
	}
	userID := e.userID
	e.mu.Unlock()

	profile, err := e.store.Onboarding(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return roadmap.Eligibility(nil), nil
		}
		return roadmap.PipelineStatus{}, shared.WrapError("sync", "PipelineStatus", shared.ErrExternalService, "failed to load onboarding profile", err)
	}
	return roadmap.Eligibility(profile), nil
}

// GenerateRoadmap runs the generation pipeline for the session's user.
// Eligibility is checked first; an ineligible user is rejected without any
// generation call. On success a fresh all-zero progress array is seeded
// from the new roadmap's per-week task counts, the record is persisted,
// and the session snapshot is replaced.
func (e *Engine) GenerateRoadmap(ctx context.Context) (*roadmap.UserRoadmap, error) {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return nil, shared.ErrNoRoadmapLoaded
	}
	if e.generator == nil {
		e.mu.Unlock()
		return nil, shared.ErrGeneratorUnkeyed
	}
	userID := e.userID
	e.mu.Unlock()

	profile, err := e.store.Onboarding(ctx, userID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, shared.WrapError("sync", "Generate", shared.ErrExternalService, "failed to load onboarding profile", err)
	}
	status := roadmap.Eligibility(profile)
	if !status.CanRunPipeline {
		return nil, shared.WrapError("sync", "Generate", shared.ErrValidation, status.Reason, nil)
	}

	newRoadmap, metadata, err := e.generator.GenerateRoadmap(ctx, profile)
	if err != nil {
		return nil, err
	}
	if err := newRoadmap.Validate(); err != nil {
		return nil, err
	}

	record := &roadmap.UserRoadmap{
		UserID:      userID,
		Roadmap:     newRoadmap,
		Progress:    roadmap.SeedProgress(newRoadmap),
		AIGenerated: !metadata.MockData,
		Metadata:    metadata,
		UpdatedAt:   e.now(),
	}
	if err := e.store.Upsert(ctx, record); err != nil {
		return nil, shared.WrapError("sync", "Generate", shared.ErrExternalService, "failed to persist generated roadmap", err)
	}

	e.mu.Lock()
	e.state = record
	e.guards = make(map[int]time.Time)
	e.mu.Unlock()

	e.publish(shared.NewRoadmapGeneratedEvent(userID, newRoadmap.TotalWeeks(), metadata.Model, metadata.MockData))
	return record, nil
}

// publish sends an event on the bus, if one is wired. Publish failures are
// logged and ignored; events are advisory, not transactional.
func (e *Engine) publish(event shared.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(event); err != nil {
		e.logger.Debug("event publish failed", "event_type", event.EventType(), "error", err)
	}
}
