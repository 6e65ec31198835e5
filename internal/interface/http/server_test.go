package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SuWh1/InternAI-sub001/internal/application/sync"
	"github.com/SuWh1/InternAI-sub001/internal/domain/lesson"
	"github.com/SuWh1/InternAI-sub001/internal/domain/roadmap"
	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/contentcache"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/generation"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type memStore struct {
	record     *roadmap.UserRoadmap
	onboarding *roadmap.OnboardingProfile
	saveErr    error
}

func (s *memStore) Fetch(_ context.Context, userID string) (*roadmap.UserRoadmap, error) {
	if s.record == nil {
		return nil, shared.ErrRoadmapNotFound
	}
	copied := *s.record
	copied.Progress = roadmap.CloneProgress(s.record.Progress)
	return &copied, nil
}

func (s *memStore) SaveProgress(_ context.Context, _ string, progress []roadmap.WeekProgress) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.record.Progress = roadmap.CloneProgress(progress)
	return nil
}

func (s *memStore) Upsert(_ context.Context, record *roadmap.UserRoadmap) error {
	s.record = record
	return nil
}

func (s *memStore) Onboarding(_ context.Context, _ string) (*roadmap.OnboardingProfile, error) {
	if s.onboarding == nil {
		return nil, shared.ErrNotFound
	}
	return s.onboarding, nil
}

type memIdentityStore struct {
	data map[string]*lesson.Identity
}

func (s *memIdentityStore) Get(_ context.Context, slug string) (*lesson.Identity, error) {
	if identity, ok := s.data[slug]; ok {
		return identity, nil
	}
	return nil, shared.ErrLessonNotFound
}

func (s *memIdentityStore) Put(_ context.Context, identity *lesson.Identity) error {
	s.data[identity.Slug] = identity
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func testServer(t *testing.T, store *memStore) *Server {
	t.Helper()

	engine := sync.NewEngine(store, nil, nil, nil, sync.DefaultConfig())
	require.NoError(t, engine.Load(context.Background(), "user-1"))

	resolver := lesson.NewResolver(&memIdentityStore{data: make(map[string]*lesson.Identity)}, nil)

	config := DefaultConfig()
	config.RateLimitPerMinute = 0

	return NewServer(config, Dependencies{
		Engine:   engine,
		Resolver: resolver,
	})
}

func seededStore() *memStore {
	rm := &roadmap.Roadmap{
		Weeks: []roadmap.Week{
			{WeekNumber: 1, Theme: "Foundations", Tasks: []string{"a", "b"}},
			{WeekNumber: 2, Theme: "Projects", Tasks: []string{"c"}},
		},
	}
	return &memStore{
		record: &roadmap.UserRoadmap{
			UserID:   "user-1",
			Roadmap:  rm,
			Progress: roadmap.SeedProgress(rm),
		},
	}
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, JSONResponse) {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}

	req := httptest.NewRequest(method, path, &reqBody)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestServer_GetRoadmap(t *testing.T) {
	s := testServer(t, seededStore())

	rec, resp := doRequest(t, s, http.MethodGet, "/api/v1/roadmap", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["has_roadmap"])
	assert.NotNil(t, data["roadmap"])
	assert.NotNil(t, data["progress"])
	assert.NotNil(t, data["stats"])
}

func TestServer_GetRoadmap_EmptySession(t *testing.T) {
	s := testServer(t, &memStore{})

	rec, resp := doRequest(t, s, http.MethodGet, "/api/v1/roadmap", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["has_roadmap"])
}

func TestServer_ToggleItem(t *testing.T) {
	s := testServer(t, seededStore())

	rec, resp := doRequest(t, s, http.MethodPut, "/api/v1/progress/weeks/1/items/task-0",
		map[string]bool{"completed": true})

	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["week_number"])
	assert.Equal(t, "task-0", data["item_id"])
	assert.Equal(t, true, data["completed"])
	assert.Equal(t, float64(50), data["completion_percentage"])
}

func TestServer_ToggleItem_LockedWeek(t *testing.T) {
	s := testServer(t, seededStore())

	rec, resp := doRequest(t, s, http.MethodPut, "/api/v1/progress/weeks/2/items/task-0",
		map[string]bool{"completed": true})

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "week_locked", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Week 2 is locked")
}

func TestServer_ToggleItem_BadWeek(t *testing.T) {
	s := testServer(t, seededStore())

	rec, _ := doRequest(t, s, http.MethodPut, "/api/v1/progress/weeks/nope/items/task-0",
		map[string]bool{"completed": true})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CheckWeekAccess(t *testing.T) {
	s := testServer(t, seededStore())

	rec, resp := doRequest(t, s, http.MethodGet, "/api/v1/roadmap/weeks/2/access", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["allowed"])
}

func TestServer_PipelineStatus(t *testing.T) {
	s := testServer(t, seededStore())

	rec, resp := doRequest(t, s, http.MethodGet, "/api/v1/pipeline/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["can_run_pipeline"])
	assert.Equal(t, false, data["onboarding_completed"])
}

func TestServer_GenerateRoadmap_NoGeneratorConfigured(t *testing.T) {
	s := testServer(t, seededStore())

	rec, resp := doRequest(t, s, http.MethodPost, "/api/v1/roadmap/generate", nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_state", resp.Error.Code)
}

func TestServer_CreateAndResolveLesson(t *testing.T) {
	s := testServer(t, seededStore())

	rec, resp := doRequest(t, s, http.MethodPost, "/api/v1/lessons", map[string]interface{}{
		"topic":       "React Hooks",
		"context":     "Frontend track",
		"week_number": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "/lesson/react-hooks-week-3", data["url"])

	rec, resp = doRequest(t, s, http.MethodGet, "/api/v1/lessons/react-hooks-week-3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	identity := resp.Data.(map[string]interface{})
	assert.Equal(t, "React Hooks", identity["topic"])
	assert.Equal(t, float64(3), identity["week_number"])
}

func TestServer_GetLesson_UnknownSlugParsesStructurally(t *testing.T) {
	s := testServer(t, seededStore())

	rec, resp := doRequest(t, s, http.MethodGet, "/api/v1/lessons/graphql-basics-week-4", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	identity := resp.Data.(map[string]interface{})
	assert.Equal(t, "graphql basics", identity["topic"])
	assert.Equal(t, true, identity["reconstructed"])
}

func TestServer_GetLesson_NotFound(t *testing.T) {
	s := testServer(t, seededStore())

	rec, resp := doRequest(t, s, http.MethodGet, "/api/v1/lessons/not-a-lesson-slug", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
}

func TestServer_Health(t *testing.T) {
	s := testServer(t, seededStore())

	rec, resp := doRequest(t, s, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestServer_APIKeyGuardsAPIRoutes(t *testing.T) {
	store := seededStore()
	engine := sync.NewEngine(store, nil, nil, nil, sync.DefaultConfig())
	require.NoError(t, engine.Load(context.Background(), "user-1"))
	resolver := lesson.NewResolver(&memIdentityStore{data: make(map[string]*lesson.Identity)}, nil)

	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	config.APIKeys = []string{"secret"}
	s := NewServer(config, Dependencies{Engine: engine, Resolver: resolver})

	// No key: API routes are rejected.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/roadmap", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Wrong key: rejected.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/roadmap", nil)
	req.Header.Set("X-API-Key", "nope")
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Configured key in the key header.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/roadmap", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Bearer fallback.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/roadmap", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health probes stay open.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakePublisher struct {
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func TestServer_GenerateLessonContent_PublishesEvent(t *testing.T) {
	store := seededStore()
	engine := sync.NewEngine(store, nil, nil, nil, sync.DefaultConfig())
	require.NoError(t, engine.Load(context.Background(), "user-1"))
	resolver := lesson.NewResolver(&memIdentityStore{data: make(map[string]*lesson.Identity)}, nil)
	generator := generation.NewService(generation.Config{}, contentcache.New(contentcache.DefaultConfig()), nil)
	publisher := &fakePublisher{}

	config := DefaultConfig()
	config.RateLimitPerMinute = 0
	s := NewServer(config, Dependencies{
		Engine:    engine,
		Resolver:  resolver,
		Generator: generator,
		Publisher: publisher,
	})

	rec, resp := doRequest(t, s, http.MethodPost, "/api/v1/lessons/react-hooks-week-3/content",
		map[string]string{"user_level": "beginner"})

	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["mock"])
	assert.Equal(t, false, data["cached"])

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, shared.EventContentGenerate, event.EventType())
	assert.Equal(t, "user-1", event.AggregateID())
	assert.Equal(t, 3, event.Payload()["week_number"])
}
