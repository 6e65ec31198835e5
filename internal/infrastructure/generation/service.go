// Package generation implements the AI content generation service: full
// roadmap generation, per-week subtopics, and per-topic lesson content.
// Calls go through a token-bucket rate limiter and a circuit breaker; when
// no API key is configured the service falls back to deterministic mock
// output so local development never blocks on a provider.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/SuWh1/InternAI-sub001/internal/domain/roadmap"
	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/contentcache"
	"github.com/SuWh1/InternAI-sub001/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds generation service configuration.
type Config struct {
	// APIKey is the OpenAI API key. Empty enables mock mode.
	APIKey string

	// Model is the chat completion model.
	Model string

	// Temperature controls output randomness.
	Temperature float32

	// MaxTokens bounds the completion length.
	MaxTokens int

	// RequestTimeout bounds a single completion call. Generation can
	// legitimately run tens of seconds.
	RequestTimeout time.Duration

	// RateLimiter configures the outbound request rate cap.
	RateLimiter RateLimiterConfig

	// CircuitBreaker configures fail-fast behavior for a degraded provider.
	CircuitBreaker CircuitBreakerConfig
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Model:          openai.GPT4oMini,
		Temperature:    0.7,
		MaxTokens:      4096,
		RequestTimeout: 90 * time.Second,
		RateLimiter:    DefaultRateLimiterConfig(),
		CircuitBreaker: DefaultCircuitBreakerConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// chatCompleter is the slice of the OpenAI client the service uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ContentRequest identifies one generation request. Topic, Context, and
// UserLevel together form the cache fingerprint.
type ContentRequest struct {
	Topic           string
	Context         string
	UserLevel       string
	ForceRegenerate bool
}

// ContentResult is a generated (or cached) lesson payload.
type ContentResult struct {
	Content string

	// Cached means the payload was served from the content cache.
	Cached bool

	// Degraded means the provider returned error-shaped text. The payload
	// is shown with a regenerate affordance and is never cached.
	Degraded bool

	// Mock means the payload came from the mock fallback. Mock content is
	// never cached, so a later keyed run regenerates for real.
	Mock bool
}

// Service generates roadmaps, subtopics, and lesson content.
type Service struct {
	client  chatCompleter
	config  Config
	limiter *RateLimiter
	breaker *CircuitBreaker
	retrier *retry.Retrier
	cache   *contentcache.Cache
	logger  *slog.Logger
}

// NewService creates a generation Service. With an empty APIKey the service
// runs in mock mode.
func NewService(cfg Config, cache *contentcache.Cache, logger *slog.Logger) *Service {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.RateLimiter == (RateLimiterConfig{}) {
		cfg.RateLimiter = def.RateLimiter
	}
	if cfg.CircuitBreaker == (CircuitBreakerConfig{}) {
		cfg.CircuitBreaker = def.CircuitBreaker
	}
	if logger == nil {
		logger = slog.Default()
	}

	var client chatCompleter
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	} else {
		logger.Warn("no API key configured, generation runs in mock mode")
	}

	return &Service{
		client:  client,
		config:  cfg,
		limiter: NewRateLimiter(cfg.RateLimiter),
		breaker: NewCircuitBreaker(cfg.CircuitBreaker),
		retrier: retry.GenerationRetrier(),
		cache:   cache,
		logger:  logger,
	}
}

// MockMode reports whether the service runs without a provider.
func (s *Service) MockMode() bool {
	return s.client == nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROADMAP GENERATION
// ══════════════════════════════════════════════════════════════════════════════

// roadmapPayload is the model's JSON output shape for a full roadmap.
type roadmapPayload struct {
	Weeks                  []json.RawMessage `json:"weeks"`
	PersonalizationSummary string            `json:"personalization_summary"`
}

// weekPayload mirrors roadmap.Week but takes subtopics as raw JSON so both
// the bare-string and object forms are accepted.
type weekPayload struct {
	WeekNumber     int             `json:"week_number"`
	Theme          string          `json:"theme"`
	FocusArea      string          `json:"focus_area"`
	Tasks          []string        `json:"tasks"`
	EstimatedHours int             `json:"estimated_hours"`
	Deliverables   []string        `json:"deliverables"`
	Resources      []string        `json:"resources"`
	Subtopics      json.RawMessage `json:"subtopics,omitempty"`
}

// GenerateRoadmap produces a personalized roadmap from an onboarding
// profile. Satisfies the sync engine's Generator dependency.
func (s *Service) GenerateRoadmap(ctx context.Context, profile *roadmap.OnboardingProfile) (*roadmap.Roadmap, roadmap.GenerationMetadata, error) {
	start := time.Now()

	if s.MockMode() {
		return mockRoadmap(profile), mockMetadata(start), nil
	}

	raw, err := s.complete(ctx, roadmapSystemPrompt, roadmapPrompt(profile), true)
	if err != nil {
		return nil, roadmap.GenerationMetadata{}, err
	}

	var payload roadmapPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, roadmap.GenerationMetadata{}, shared.WrapError("generation", "Parse", shared.ErrInvalidFormat, "model returned unparseable roadmap", err)
	}

	rm := &roadmap.Roadmap{PersonalizationSummary: payload.PersonalizationSummary}
	for _, rawWeek := range payload.Weeks {
		var wp weekPayload
		if err := json.Unmarshal(rawWeek, &wp); err != nil {
			return nil, roadmap.GenerationMetadata{}, shared.WrapError("generation", "Parse", shared.ErrInvalidFormat, "model returned unparseable week", err)
		}
		week := roadmap.Week{
			WeekNumber:     wp.WeekNumber,
			Theme:          wp.Theme,
			FocusArea:      wp.FocusArea,
			Tasks:          wp.Tasks,
			EstimatedHours: wp.EstimatedHours,
			Deliverables:   wp.Deliverables,
			Resources:      wp.Resources,
		}
		if len(wp.Subtopics) > 0 {
			subtopics, err := roadmap.ResolveSubtopics(wp.Subtopics)
			if err != nil {
				return nil, roadmap.GenerationMetadata{}, err
			}
			week.Subtopics = subtopics
		}
		rm.Weeks = append(rm.Weeks, week)
	}
	if err := rm.Validate(); err != nil {
		return nil, roadmap.GenerationMetadata{}, shared.WrapError("generation", "Validate", shared.ErrInvalidEntity, "model returned invalid roadmap", err)
	}

	metadata := roadmap.GenerationMetadata{
		Model:       s.config.Model,
		GeneratedAt: start.UTC(),
		Duration:    time.Since(start),
	}
	if profile != nil {
		metadata.PersonalizationFactors = append(profile.TargetRoles, profile.ExperienceLevel)
	}
	return rm, metadata, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBTOPIC GENERATION
// ══════════════════════════════════════════════════════════════════════════════

// subtopicsPayload is the model's JSON output shape for subtopics.
type subtopicsPayload struct {
	Subtopics json.RawMessage `json:"subtopics"`
}

// GenerateSubtopics breaks a topic into subtopics. Results are cached per
// fingerprint; ForceRegenerate deletes the entry first so a stale hit
// cannot mask the fresh call.
func (s *Service) GenerateSubtopics(ctx context.Context, req ContentRequest) ([]roadmap.Subtopic, error) {
	key := "subtopics:" + contentcache.Fingerprint(req.Topic, req.Context, req.UserLevel)
	if req.ForceRegenerate {
		s.cache.Delete(key)
	} else if cached, err := s.cache.Get(key); err == nil {
		var subtopics []roadmap.Subtopic
		if err := json.Unmarshal([]byte(cached), &subtopics); err == nil {
			return subtopics, nil
		}
		s.cache.Delete(key)
	}

	// Mock output is never cached as real content.
	if s.MockMode() {
		return mockSubtopics(req.Topic), nil
	}

	raw, err := s.complete(ctx, subtopicsSystemPrompt, subtopicsPrompt(req.Topic, req.Context, req.UserLevel), true)
	if err != nil {
		return nil, err
	}

	var payload subtopicsPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, shared.WrapError("generation", "Parse", shared.ErrInvalidFormat, "model returned unparseable subtopics", err)
	}
	subtopics, err := roadmap.ResolveSubtopics(payload.Subtopics)
	if err != nil {
		return nil, err
	}
	return s.cacheSubtopics(key, subtopics)
}

// cacheSubtopics stores subtopics under key, ignoring cache refusals.
func (s *Service) cacheSubtopics(key string, subtopics []roadmap.Subtopic) ([]roadmap.Subtopic, error) {
	if data, err := json.Marshal(subtopics); err == nil {
		if err := s.cache.Set(key, string(data)); err != nil {
			s.logger.Debug("subtopics not cached", "key", key, "error", err)
		}
	}
	return subtopics, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON CONTENT GENERATION
// ══════════════════════════════════════════════════════════════════════════════

// GenerateLessonContent produces a lesson explanation for a topic. Cache
// hits short-circuit the provider call; error-shaped payloads are returned
// as Degraded and never cached, so a retryable failure is not replayed from
// cache for a full TTL. Mock output bypasses the cache entirely.
func (s *Service) GenerateLessonContent(ctx context.Context, req ContentRequest) (*ContentResult, error) {
	key := "lesson:" + contentcache.Fingerprint(req.Topic, req.Context, req.UserLevel)
	if req.ForceRegenerate {
		s.cache.Delete(key)
	} else if cached, err := s.cache.Get(key); err == nil {
		return &ContentResult{Content: cached, Cached: true}, nil
	}

	if s.MockMode() {
		return &ContentResult{Content: mockLessonContent(req.Topic, req.UserLevel), Mock: true}, nil
	}

	content, err := s.complete(ctx, lessonSystemPrompt, lessonPrompt(req.Topic, req.Context, req.UserLevel), false)
	if err != nil {
		return nil, err
	}

	if contentcache.IsFailureShaped(content) {
		s.logger.Warn("generation returned error-shaped content", "topic", req.Topic)
		return &ContentResult{Content: content, Degraded: true}, nil
	}

	if err := s.cache.Set(key, content); err != nil {
		s.logger.Debug("lesson content not cached", "key", key, "error", err)
	}
	return &ContentResult{Content: content}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROVIDER CALL
// ══════════════════════════════════════════════════════════════════════════════

// complete performs one chat completion through the rate limiter, circuit
// breaker, and retry policy.
func (s *Service) complete(ctx context.Context, system, user string, jsonOutput bool) (string, error) {
	if err := s.limiter.Allow(ctx); err != nil {
		return "", shared.WrapError("generation", "Generate", shared.ErrRateLimited, "rate limit wait exhausted", err)
	}
	if err := s.breaker.Allow(); err != nil {
		return "", shared.WrapError("generation", "Generate", shared.ErrServiceUnavailable, "provider circuit open", err)
	}

	request := openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonOutput {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()

		resp, err := s.client.CreateChatCompletion(callCtx, request)
		if err != nil {
			s.breaker.RecordFailure()
			return s.classifyError(err)
		}
		if len(resp.Choices) == 0 {
			s.breaker.RecordFailure()
			return retry.Permanent(shared.ErrInvalidModelOutput)
		}

		s.breaker.RecordSuccess()
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// classifyError maps provider errors onto the domain taxonomy and marks
// which ones are worth retrying.
func (s *Service) classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			s.limiter.RecordRateLimitHit()
			return retry.Retryable(shared.WrapError("generation", "Generate", shared.ErrRateLimited, "provider rate limited", err))
		case apiErr.HTTPStatusCode >= 500:
			return retry.Retryable(shared.WrapError("generation", "Generate", shared.ErrExternalService, "provider error", err))
		default:
			return retry.Permanent(shared.WrapError("generation", "Generate", shared.ErrExternalService, "provider rejected request", err))
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return retry.Retryable(shared.WrapError("generation", "Generate", shared.ErrTimeout, "generation timed out", err))
	}
	return retry.Retryable(shared.WrapError("generation", "Generate", shared.ErrExternalService, "generation failed", err))
}

// extractJSON strips markdown code fences the model sometimes wraps its
// JSON in, returning the inner document.
func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	if start := strings.Index(trimmed, "{"); start > 0 {
		trimmed = trimmed[start:]
	}
	return trimmed
}
