package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SuWh1/InternAI-sub001/internal/domain/roadmap"
	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/scheduler"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeStore struct {
	mu         gosync.Mutex
	record     *roadmap.UserRoadmap
	onboarding *roadmap.OnboardingProfile

	fetchErr  error
	saveErr   error
	upsertErr error

	fetchCalls    int
	saveCalls     int
	savedProgress []roadmap.WeekProgress
}

func (s *fakeStore) Fetch(_ context.Context, userID string) (*roadmap.UserRoadmap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if s.record == nil {
		return nil, shared.ErrRoadmapNotFound
	}
	copied := *s.record
	copied.Progress = roadmap.CloneProgress(s.record.Progress)
	return &copied, nil
}

func (s *fakeStore) SaveProgress(_ context.Context, _ string, progress []roadmap.WeekProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedProgress = roadmap.CloneProgress(progress)
	if s.record != nil {
		s.record.Progress = roadmap.CloneProgress(progress)
	}
	return nil
}

func (s *fakeStore) Upsert(_ context.Context, record *roadmap.UserRoadmap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.record = record
	return nil
}

func (s *fakeStore) Onboarding(_ context.Context, _ string) (*roadmap.OnboardingProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onboarding == nil {
		return nil, shared.ErrNotFound
	}
	return s.onboarding, nil
}

type fakeGenerator struct {
	roadmap  *roadmap.Roadmap
	metadata roadmap.GenerationMetadata
	err      error
	calls    int
}

func (g *fakeGenerator) GenerateRoadmap(_ context.Context, _ *roadmap.OnboardingProfile) (*roadmap.Roadmap, roadmap.GenerationMetadata, error) {
	g.calls++
	if g.err != nil {
		return nil, roadmap.GenerationMetadata{}, g.err
	}
	return g.roadmap, g.metadata, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func testRoadmap() *roadmap.Roadmap {
	return &roadmap.Roadmap{
		Weeks: []roadmap.Week{
			{WeekNumber: 1, Theme: "Foundations", Tasks: []string{"a", "b", "c"}},
			{WeekNumber: 2, Theme: "Projects", Tasks: []string{"d", "e"}},
		},
	}
}

func loadedEngine(t *testing.T, store *fakeStore) *Engine {
	t.Helper()
	if store.record == nil {
		rm := testRoadmap()
		store.record = &roadmap.UserRoadmap{
			UserID:   "user-1",
			Roadmap:  rm,
			Progress: roadmap.SeedProgress(rm),
		}
	}
	e := NewEngine(store, nil, nil, nil, DefaultConfig())
	require.NoError(t, e.Load(context.Background(), "user-1"))
	return e
}

// ══════════════════════════════════════════════════════════════════════════════
// LOAD
// ══════════════════════════════════════════════════════════════════════════════

func TestEngine_Load_NoRoadmapIsNotAnError(t *testing.T) {
	store := &fakeStore{}
	e := NewEngine(store, nil, nil, nil, DefaultConfig())

	require.NoError(t, e.Load(context.Background(), "new-user"))
	assert.False(t, e.HasRoadmap())
	assert.Nil(t, e.Roadmap())
}

func TestEngine_Load_FetchFailure(t *testing.T) {
	store := &fakeStore{fetchErr: errors.New("connection refused")}
	e := NewEngine(store, nil, nil, nil, DefaultConfig())

	err := e.Load(context.Background(), "user-1")
	assert.ErrorIs(t, err, shared.ErrExternalService)
}

// ══════════════════════════════════════════════════════════════════════════════
// TOGGLE
// ══════════════════════════════════════════════════════════════════════════════

func TestEngine_ToggleCompletion(t *testing.T) {
	store := &fakeStore{}
	e := loadedEngine(t, store)
	ctx := context.Background()

	result, err := e.ToggleCompletion(ctx, 1, "task-0", true)
	require.NoError(t, err)

	assert.Equal(t, 33, result.CompletionPercentage)
	assert.False(t, result.WeekCompleted)
	assert.Equal(t, TxConfirmed, result.Status)

	week1 := roadmap.FindWeekProgress(e.Progress(), 1)
	require.NotNil(t, week1)
	assert.Equal(t, []string{"task-0"}, week1.CompletedTasks)

	// The entire progress array is persisted, not a single-week delta.
	assert.Equal(t, 1, store.saveCalls)
	assert.Len(t, store.savedProgress, 2)
}

func TestEngine_ToggleCompletion_RequiresLoadedRoadmap(t *testing.T) {
	e := NewEngine(&fakeStore{}, nil, nil, nil, DefaultConfig())

	_, err := e.ToggleCompletion(context.Background(), 1, "task-0", true)
	assert.ErrorIs(t, err, shared.ErrNoRoadmapLoaded)
}

func TestEngine_ToggleCompletion_LockedWeekRejectedWithoutPersist(t *testing.T) {
	store := &fakeStore{}
	e := loadedEngine(t, store)

	_, err := e.ToggleCompletion(context.Background(), 2, "task-0", true)
	assert.ErrorIs(t, err, shared.ErrLocked)
	assert.Equal(t, 0, store.saveCalls, "locked toggles must not reach the store")
}

func TestEngine_ToggleCompletion_CompletingWeekUnlocksNext(t *testing.T) {
	store := &fakeStore{}
	e := loadedEngine(t, store)
	ctx := context.Background()

	for _, itemID := range []string{"task-0", "task-1", "task-2"} {
		result, err := e.ToggleCompletion(ctx, 1, itemID, true)
		require.NoError(t, err)
		if itemID == "task-2" {
			assert.True(t, result.WeekCompleted)
			assert.Equal(t, 100, result.CompletionPercentage)
		}
	}

	_, err := e.ToggleCompletion(ctx, 2, "task-0", true)
	assert.NoError(t, err, "week 2 should be unlocked after week 1 completes")
}

func TestEngine_ToggleCompletion_ToggleTwiceRestoresState(t *testing.T) {
	store := &fakeStore{}
	e := loadedEngine(t, store)
	ctx := context.Background()

	before := e.Progress()

	_, err := e.ToggleCompletion(ctx, 1, "task-1", true)
	require.NoError(t, err)
	_, err = e.ToggleCompletion(ctx, 1, "task-1", false)
	require.NoError(t, err)

	after := e.Progress()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].CompletedTasks, after[i].CompletedTasks)
		assert.Equal(t, before[i].CompletionPercentage, after[i].CompletionPercentage)
	}
}

func TestEngine_ToggleCompletion_FailedPersistRollsBack(t *testing.T) {
	store := &fakeStore{}
	e := loadedEngine(t, store)
	ctx := context.Background()

	before := e.Progress()

	store.saveErr = errors.New("network unreachable")
	_, err := e.ToggleCompletion(ctx, 1, "task-0", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrExternalService)

	assert.Equal(t, before, e.Progress(), "failed persist must leave state identical to its pre-toggle snapshot")
}

func TestEngine_ToggleCompletion_InvalidItemIDLeavesStateUntouched(t *testing.T) {
	store := &fakeStore{}
	e := loadedEngine(t, store)

	before := e.Progress()
	_, err := e.ToggleCompletion(context.Background(), 1, "bogus-0", true)
	require.Error(t, err)

	assert.Equal(t, before, e.Progress())
	assert.Equal(t, 0, store.saveCalls)
}

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH
// ══════════════════════════════════════════════════════════════════════════════

func TestEngine_Refresh_ReplacesSnapshot(t *testing.T) {
	store := &fakeStore{}
	e := loadedEngine(t, store)
	ctx := context.Background()

	// Another device completes a task remotely.
	store.mu.Lock()
	remote := roadmap.FindWeekProgress(store.record.Progress, 1)
	remote.CompletedTasks = []string{"task-0", "task-1"}
	remote.CompletionPercentage = 67
	store.mu.Unlock()

	require.NoError(t, e.Refresh(ctx))

	week1 := roadmap.FindWeekProgress(e.Progress(), 1)
	assert.Equal(t, 67, week1.CompletionPercentage)
}

func TestEngine_Refresh_GuardWindowProtectsInFlightToggle(t *testing.T) {
	store := &fakeStore{}
	e := loadedEngine(t, store)
	ctx := context.Background()

	now := time.Now()
	e.now = func() time.Time { return now }

	_, err := e.ToggleCompletion(ctx, 1, "task-0", true)
	require.NoError(t, err)

	// Remote still reports the stale pre-toggle state.
	store.mu.Lock()
	remote := roadmap.FindWeekProgress(store.record.Progress, 1)
	remote.CompletedTasks = nil
	remote.CompletionPercentage = 0
	store.mu.Unlock()

	require.NoError(t, e.Refresh(ctx))
	week1 := roadmap.FindWeekProgress(e.Progress(), 1)
	assert.Equal(t, []string{"task-0"}, week1.CompletedTasks, "guarded week must keep local progress")

	// After the guard window expires, the remote state wins.
	now = now.Add(5 * time.Second)
	require.NoError(t, e.Refresh(ctx))
	week1 = roadmap.FindWeekProgress(e.Progress(), 1)
	assert.Empty(t, week1.CompletedTasks)
}

func TestEngine_RequestRefresh_DebouncesRapidTriggers(t *testing.T) {
	store := &fakeStore{}
	e := loadedEngine(t, store)
	store.mu.Lock()
	store.fetchCalls = 0
	store.mu.Unlock()

	debouncer := scheduler.NewDebouncer(100*time.Millisecond, func() {
		_ = e.Refresh(context.Background())
	})
	defer debouncer.Stop()
	e.SetRefreshTrigger(debouncer)

	// Five focus/visibility events inside 200ms.
	for i := 0; i < 5; i++ {
		e.RequestRefresh()
		time.Sleep(40 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.fetchCalls == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.fetchCalls, "rapid-fire triggers must collapse into one refresh")
}

// ══════════════════════════════════════════════════════════════════════════════
// GENERATION
// ══════════════════════════════════════════════════════════════════════════════

func completeProfile() *roadmap.OnboardingProfile {
	return &roadmap.OnboardingProfile{
		UserID:              "user-1",
		CurrentYear:         "3rd year",
		Major:               "Computer Science",
		ExperienceLevel:     "intermediate",
		TargetRoles:         []string{"Backend Engineer"},
		ApplicationTimeline: "summer 2027",
	}
}

func TestEngine_PipelineStatus(t *testing.T) {
	store := &fakeStore{}
	e := loadedEngine(t, store)
	ctx := context.Background()

	status, err := e.PipelineStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.CanRunPipeline)
	assert.Equal(t, "Onboarding not completed", status.Reason)

	store.mu.Lock()
	store.onboarding = completeProfile()
	store.mu.Unlock()

	status, err = e.PipelineStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.CanRunPipeline)
}

func TestEngine_GenerateRoadmap_RejectsIneligibleUser(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{roadmap: testRoadmap()}
	e := NewEngine(store, gen, nil, nil, DefaultConfig())
	require.NoError(t, e.Load(context.Background(), "user-1"))

	_, err := e.GenerateRoadmap(context.Background())
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, 0, gen.calls, "ineligible users must not reach the generator")
}

func TestEngine_GenerateRoadmap_SeedsZeroProgress(t *testing.T) {
	store := &fakeStore{onboarding: completeProfile()}
	gen := &fakeGenerator{
		roadmap:  testRoadmap(),
		metadata: roadmap.GenerationMetadata{Model: "gpt-4o", GeneratedAt: time.Now()},
	}
	e := NewEngine(store, gen, nil, nil, DefaultConfig())
	require.NoError(t, e.Load(context.Background(), "user-1"))

	record, err := e.GenerateRoadmap(context.Background())
	require.NoError(t, err)

	require.Len(t, record.Progress, 2)
	for _, wp := range record.Progress {
		assert.Empty(t, wp.CompletedTasks)
		assert.Equal(t, 0, wp.CompletionPercentage)
	}
	assert.Equal(t, 3, record.Progress[0].TotalTasks)
	assert.Equal(t, 2, record.Progress[1].TotalTasks)
	assert.True(t, record.AIGenerated)
	assert.True(t, e.HasRoadmap())
}

func TestEngine_GenerateRoadmap_SurfacesGeneratorError(t *testing.T) {
	store := &fakeStore{onboarding: completeProfile()}
	gen := &fakeGenerator{err: shared.ErrGenerationFailed}
	e := NewEngine(store, gen, nil, nil, DefaultConfig())
	require.NoError(t, e.Load(context.Background(), "user-1"))

	_, err := e.GenerateRoadmap(context.Background())
	assert.ErrorIs(t, err, shared.ErrGenerationFailed)
}
