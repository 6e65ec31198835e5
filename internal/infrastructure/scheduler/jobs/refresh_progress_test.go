package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/persistence/redis"
)

// The production cleaner must keep satisfying the job's interface.
var _ LegacyCleaner = (*redis.SlugStore)(nil)

type fakeRefresher struct {
	hasRoadmap bool
	err        error
	calls      int
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.calls++
	return f.err
}

func (f *fakeRefresher) HasRoadmap() bool {
	return f.hasRoadmap
}

func TestRefreshProgressJob_SkipsWithoutRoadmap(t *testing.T) {
	engine := &fakeRefresher{hasRoadmap: false}
	job := NewRefreshProgressJob(engine, nil, DefaultRefreshProgressConfig())

	require.NoError(t, job.Run(context.Background()))

	assert.Zero(t, engine.calls)
	stats := job.LastRunStats()
	require.NotNil(t, stats)
	assert.True(t, stats.Skipped)
}

func TestRefreshProgressJob_RunsRefresh(t *testing.T) {
	engine := &fakeRefresher{hasRoadmap: true}
	job := NewRefreshProgressJob(engine, nil, DefaultRefreshProgressConfig())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 1, engine.calls)
	stats := job.LastRunStats()
	require.NotNil(t, stats)
	assert.False(t, stats.Skipped)
	assert.NoError(t, stats.Error)
}

func TestRefreshProgressJob_SurfacesRefreshError(t *testing.T) {
	engine := &fakeRefresher{hasRoadmap: true, err: errors.New("store unavailable")}
	job := NewRefreshProgressJob(engine, nil, DefaultRefreshProgressConfig())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unavailable")
}

type fakeCleaner struct {
	deleted int64
	err     error
}

func (f *fakeCleaner) CleanupLegacyProgress(ctx context.Context) (int64, error) {
	return f.deleted, f.err
}

func TestCleanupLegacyCacheJob(t *testing.T) {
	job := NewCleanupLegacyCacheJob(&fakeCleaner{deleted: 3}, nil)
	assert.Equal(t, "cleanup_legacy_cache", job.Name())
	require.NoError(t, job.Run(context.Background()))

	failing := NewCleanupLegacyCacheJob(&fakeCleaner{err: errors.New("scan failed")}, nil)
	assert.Error(t, failing.Run(context.Background()))
}
