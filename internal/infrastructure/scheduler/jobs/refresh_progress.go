// Package jobs contains implementations of scheduled jobs for InternAI.
// Background jobs reconcile local progress state with the server store and
// keep the cache layer free of superseded entries.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH PROGRESS JOB
// ══════════════════════════════════════════════════════════════════════════════

// Refresher reconciles in-memory progress with the server store.
// Implemented by the sync engine.
type Refresher interface {
	Refresh(ctx context.Context) error
	HasRoadmap() bool
}

// RefreshProgressJob periodically re-fetches the roadmap and progress from
// the server store so that changes made on other devices show up without a
// manual reload. In-flight toggles are protected by the engine's guard
// window, so running this job never clobbers an optimistic update.
type RefreshProgressJob struct {
	engine Refresher
	logger *slog.Logger
	config RefreshProgressConfig

	lastRun atomic.Value // *RefreshRunStats
}

// RefreshProgressConfig contains configuration for the refresh job.
type RefreshProgressConfig struct {
	// Timeout bounds a single refresh attempt.
	Timeout time.Duration
}

// DefaultRefreshProgressConfig returns sensible defaults.
func DefaultRefreshProgressConfig() RefreshProgressConfig {
	return RefreshProgressConfig{
		Timeout: 30 * time.Second,
	}
}

// RefreshRunStats contains statistics from a refresh run.
type RefreshRunStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Skipped     bool
	Error       error
}

// NewRefreshProgressJob creates a new refresh job.
func NewRefreshProgressJob(engine Refresher, logger *slog.Logger, config RefreshProgressConfig) *RefreshProgressJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &RefreshProgressJob{
		engine: engine,
		logger: logger,
		config: config,
	}
}

// Name returns the job name.
func (j *RefreshProgressJob) Name() string {
	return "refresh_progress"
}

// Description returns a human-readable description.
func (j *RefreshProgressJob) Description() string {
	return "Reconciles local roadmap progress with the server store"
}

// Run executes the refresh job.
func (j *RefreshProgressJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RefreshRunStats{StartedAt: startedAt}

	// Nothing to reconcile before a roadmap is loaded.
	if !j.engine.HasRoadmap() {
		stats.Skipped = true
		stats.CompletedAt = time.Now()
		j.lastRun.Store(stats)
		j.logger.Debug("refresh_progress skipped, no roadmap loaded")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	err := j.engine.Refresh(ctx)

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	stats.Error = err
	j.lastRun.Store(stats)

	if err != nil {
		return fmt.Errorf("refresh progress: %w", err)
	}

	j.logger.Debug("refresh_progress completed", "duration", stats.Duration.String())
	return nil
}

// LastRunStats returns statistics from the last run, or nil before the
// first run.
func (j *RefreshProgressJob) LastRunStats() *RefreshRunStats {
	stats := j.lastRun.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RefreshRunStats)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEGACY CACHE CLEANUP JOB
// ══════════════════════════════════════════════════════════════════════════════

// LegacyCleaner removes cache entries written by superseded storage schemes.
type LegacyCleaner interface {
	CleanupLegacyProgress(ctx context.Context) (int64, error)
}

// CleanupLegacyCacheJob sweeps Redis for keys left behind by the old
// local-first progress cache. Harmless when nothing matches.
type CleanupLegacyCacheJob struct {
	cleaner LegacyCleaner
	logger  *slog.Logger
}

// NewCleanupLegacyCacheJob creates a new cleanup job.
func NewCleanupLegacyCacheJob(cleaner LegacyCleaner, logger *slog.Logger) *CleanupLegacyCacheJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupLegacyCacheJob{
		cleaner: cleaner,
		logger:  logger,
	}
}

// Name returns the job name.
func (j *CleanupLegacyCacheJob) Name() string {
	return "cleanup_legacy_cache"
}

// Description returns a human-readable description.
func (j *CleanupLegacyCacheJob) Description() string {
	return "Removes legacy local-progress keys from the cache"
}

// Run executes the cleanup job.
func (j *CleanupLegacyCacheJob) Run(ctx context.Context) error {
	deleted, err := j.cleaner.CleanupLegacyProgress(ctx)
	if err != nil {
		return fmt.Errorf("cleanup legacy cache: %w", err)
	}
	if deleted > 0 {
		j.logger.Info("cleanup_legacy_cache removed keys", "count", deleted)
	}
	return nil
}
