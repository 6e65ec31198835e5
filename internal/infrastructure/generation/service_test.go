package generation

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SuWh1/InternAI-sub001/internal/domain/roadmap"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/contentcache"
)

// fakeCompleter returns canned chat completions.
type fakeCompleter struct {
	content string
	err     error
	calls   int
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func newTestService(completer chatCompleter) *Service {
	s := NewService(Config{}, contentcache.New(contentcache.DefaultConfig()), nil)
	s.client = completer
	return s
}

func TestService_MockMode(t *testing.T) {
	s := NewService(Config{}, contentcache.New(contentcache.DefaultConfig()), nil)
	require.True(t, s.MockMode())

	t.Run("roadmap", func(t *testing.T) {
		rm, metadata, err := s.GenerateRoadmap(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 12, rm.TotalWeeks())
		assert.True(t, metadata.MockData)
		assert.Equal(t, "mock", metadata.Model)
		require.NoError(t, rm.Validate())
	})

	t.Run("subtopics", func(t *testing.T) {
		subtopics, err := s.GenerateSubtopics(context.Background(), ContentRequest{
			Topic: "React Hooks", Context: "week 3", UserLevel: "intermediate",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, subtopics)
	})

	t.Run("lesson content", func(t *testing.T) {
		result, err := s.GenerateLessonContent(context.Background(), ContentRequest{
			Topic: "React Hooks", Context: "week 3", UserLevel: "intermediate",
		})
		require.NoError(t, err)
		assert.False(t, result.Degraded)
		assert.True(t, result.Mock)
		assert.Contains(t, result.Content, "React Hooks")
	})
}

func TestService_MockOutputNotCached(t *testing.T) {
	s := NewService(Config{}, contentcache.New(contentcache.DefaultConfig()), nil)
	require.True(t, s.MockMode())
	req := ContentRequest{Topic: "React Hooks", Context: "week 3", UserLevel: "intermediate"}
	ctx := context.Background()

	first, err := s.GenerateLessonContent(ctx, req)
	require.NoError(t, err)
	assert.True(t, first.Mock)
	assert.False(t, first.Cached)

	second, err := s.GenerateLessonContent(ctx, req)
	require.NoError(t, err)
	assert.False(t, second.Cached, "mock content must not come back as a cache hit")
	assert.True(t, second.Mock)

	_, err = s.GenerateSubtopics(ctx, req)
	require.NoError(t, err)
	assert.Zero(t, s.cache.Len(), "mock output must never reach the cache")
}

func TestService_GenerateRoadmap_ParsesModelOutput(t *testing.T) {
	payload := `{"weeks":[
		{"week_number":1,"theme":"Go Basics","focus_area":"tech_stack_fundamentals","tasks":["read the tour","write a cli"],"estimated_hours":15,"deliverables":["cli tool"],"resources":["go.dev"]},
		{"week_number":2,"theme":"Concurrency","focus_area":"tech_stack_fundamentals","tasks":["goroutines","channels"],"estimated_hours":18,"deliverables":["worker pool"],"resources":["go blog"],
		 "subtopics":["goroutine basics",{"title":"channels","description":"typed conduits"}]}
	],"personalization_summary":"tailored for a backend-focused learner"}`

	s := newTestService(&fakeCompleter{content: payload})

	rm, metadata, err := s.GenerateRoadmap(context.Background(), &roadmap.OnboardingProfile{
		ExperienceLevel: "intermediate",
		TargetRoles:     []string{"Backend Engineer"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, rm.TotalWeeks())
	assert.Equal(t, "tailored for a backend-focused learner", rm.PersonalizationSummary)
	require.Len(t, rm.Weeks[1].Subtopics, 2)
	assert.Equal(t, roadmap.SubtopicTitle, rm.Weeks[1].Subtopics[0].Kind)
	assert.Equal(t, roadmap.SubtopicDetailed, rm.Weeks[1].Subtopics[1].Kind)
	assert.False(t, metadata.MockData)
}

func TestService_GenerateRoadmap_StripsCodeFences(t *testing.T) {
	payload := "```json\n{\"weeks\":[{\"week_number\":1,\"theme\":\"t\",\"focus_area\":\"f\",\"tasks\":[\"a\"],\"estimated_hours\":10,\"deliverables\":[],\"resources\":[]}]}\n```"
	s := newTestService(&fakeCompleter{content: payload})

	rm, _, err := s.GenerateRoadmap(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rm.TotalWeeks())
}

func TestService_GenerateRoadmap_UnparseableOutput(t *testing.T) {
	s := newTestService(&fakeCompleter{content: "sorry, I cannot help with that"})

	_, _, err := s.GenerateRoadmap(context.Background(), nil)
	require.Error(t, err)
}

func TestService_GenerateLessonContent_CachesSuccess(t *testing.T) {
	completer := &fakeCompleter{content: "# Closures\n\nA closure captures its environment."}
	s := newTestService(completer)
	req := ContentRequest{Topic: "Closures", Context: "week 2", UserLevel: "beginner"}
	ctx := context.Background()

	first, err := s.GenerateLessonContent(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := s.GenerateLessonContent(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 1, completer.calls, "cache hit must not call the provider")
}

func TestService_GenerateLessonContent_ForceRegenerateBypassesCache(t *testing.T) {
	completer := &fakeCompleter{content: "lesson body"}
	s := newTestService(completer)
	req := ContentRequest{Topic: "Closures", Context: "week 2", UserLevel: "beginner"}
	ctx := context.Background()

	_, err := s.GenerateLessonContent(ctx, req)
	require.NoError(t, err)

	req.ForceRegenerate = true
	result, err := s.GenerateLessonContent(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, completer.calls)
}

func TestService_GenerateLessonContent_DegradedPayloadNotCached(t *testing.T) {
	completer := &fakeCompleter{content: "Error generating content. Please try again later."}
	s := newTestService(completer)
	req := ContentRequest{Topic: "Closures", Context: "week 2", UserLevel: "beginner"}
	ctx := context.Background()

	result, err := s.GenerateLessonContent(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.Degraded)

	// The failure must not be replayed from cache.
	_, err = s.GenerateLessonContent(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, completer.calls)
}

func TestService_GenerateSubtopics_CachesPerFingerprint(t *testing.T) {
	completer := &fakeCompleter{content: `{"subtopics":["one","two",{"title":"three","description":"d"}]}`}
	s := newTestService(completer)
	req := ContentRequest{Topic: "Goroutines", Context: "week 4", UserLevel: "intermediate"}
	ctx := context.Background()

	first, err := s.GenerateSubtopics(ctx, req)
	require.NoError(t, err)
	require.Len(t, first, 3)

	second, err := s.GenerateSubtopics(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, completer.calls)

	other := ContentRequest{Topic: "Channels", Context: "week 4", UserLevel: "intermediate"}
	_, err = s.GenerateSubtopics(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 2, completer.calls, "different fingerprints must not share entries")
}
