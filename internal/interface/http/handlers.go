package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
	"github.com/SuWh1/InternAI-sub001/internal/infrastructure/generation"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "internai-api",
		"version": "v1",
		"uptime":  s.Uptime().Round(time.Second).String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSONError(w, http.StatusServiceUnavailable, "not_ready", status.Message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// ROADMAP HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetRoadmap(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Engine.HasRoadmap() {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"has_roadmap": false,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"has_roadmap": true,
		"roadmap":     s.deps.Engine.Roadmap(),
		"progress":    s.deps.Engine.Progress(),
		"stats":       s.deps.Engine.Stats(),
	})
}

func (s *Server) handleGenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	record, err := s.deps.Engine.GenerateRoadmap(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Engine.HasRoadmap() {
		writeJSONError(w, http.StatusNotFound, "no_roadmap", "No roadmap has been generated yet")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Engine.Stats())
}

func (s *Server) handleCheckWeekAccess(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(r.PathValue("week"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_week", "Week must be a number")
		return
	}

	check := s.deps.Engine.ValidateNavigation(week)
	writeJSON(w, http.StatusOK, check)
}

func (s *Server) handlePipelineStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.deps.Engine.PipelineStatus(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Engine.HasRoadmap() {
		writeJSONError(w, http.StatusNotFound, "no_roadmap", "No roadmap has been generated yet")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Engine.Progress())
}

type toggleItemRequest struct {
	Completed bool `json:"completed"`
}

func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(r.PathValue("week"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_week", "Week must be a number")
		return
	}
	itemID := r.PathValue("item")

	var req toggleItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be JSON with a boolean 'completed' field")
		return
	}

	result, err := s.deps.Engine.ToggleCompletion(r.Context(), week, itemID, req.Completed)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"week_number":           result.WeekNumber,
		"item_id":               result.ItemID,
		"completed":             result.Completed,
		"completion_percentage": result.CompletionPercentage,
		"week_completed":        result.WeekCompleted,
		"status":                result.Status,
	})
}

func (s *Server) handleRequestRefresh(w http.ResponseWriter, r *http.Request) {
	s.deps.Engine.RequestRefresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type createLessonRequest struct {
	Topic      string `json:"topic"`
	Context    string `json:"context"`
	WeekNumber int    `json:"week_number"`
}

func (s *Server) handleCreateLessonURL(w http.ResponseWriter, r *http.Request) {
	var req createLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be JSON")
		return
	}

	url, err := s.deps.Resolver.CreateLessonURL(r.Context(), req.Topic, req.Context, req.WeekNumber)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	identity, err := s.deps.Resolver.LessonData(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

type generateContentRequest struct {
	UserLevel       string `json:"user_level"`
	ForceRegenerate bool   `json:"force_regenerate"`
}

func (s *Server) handleGenerateLessonContent(w http.ResponseWriter, r *http.Request) {
	identity, err := s.deps.Resolver.LessonData(r.Context(), r.PathValue("slug"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var req generateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be JSON")
		return
	}

	result, err := s.deps.Generator.GenerateLessonContent(r.Context(), generation.ContentRequest{
		Topic:           identity.Topic,
		Context:         identity.Context,
		UserLevel:       req.UserLevel,
		ForceRegenerate: req.ForceRegenerate,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	if s.deps.Publisher != nil {
		event := shared.NewContentGeneratedEvent(
			s.deps.Engine.UserID(), identity.Topic, identity.WeekNumber,
			result.Cached, req.ForceRegenerate,
		)
		if err := s.deps.Publisher.Publish(event); err != nil {
			s.logger.Warn("content generated event not published", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"slug":     identity.Slug,
		"content":  result.Content,
		"cached":   result.Cached,
		"degraded": result.Degraded,
		"mock":     result.Mock,
	})
}

type generateSubtopicsRequest struct {
	Topic           string `json:"topic"`
	Context         string `json:"context"`
	UserLevel       string `json:"user_level"`
	ForceRegenerate bool   `json:"force_regenerate"`
}

func (s *Server) handleGenerateSubtopics(w http.ResponseWriter, r *http.Request) {
	var req generateSubtopicsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be JSON")
		return
	}
	if req.Topic == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_topic", "Topic is required")
		return
	}

	subtopics, err := s.deps.Generator.GenerateSubtopics(r.Context(), generation.ContentRequest{
		Topic:           req.Topic,
		Context:         req.Context,
		UserLevel:       req.UserLevel,
		ForceRegenerate: req.ForceRegenerate,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topic":     req.Topic,
		"subtopics": subtopics,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain error kinds onto HTTP status codes. The
// message of the underlying domain error is passed through so the client
// can surface it verbatim (locked-week messages in particular).
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, shared.ErrLocked):
		status, code = http.StatusForbidden, "week_locked"
	case shared.IsNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case shared.IsValidation(err):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, shared.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, shared.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, shared.ErrTimeout):
		status, code = http.StatusGatewayTimeout, "timeout"
	case shared.IsExternalService(err):
		status, code = http.StatusBadGateway, "upstream_error"
	default:
		status, code = http.StatusInternalServerError, "internal_error"
	}

	if status >= 500 {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", getRequestID(r.Context()),
		)
	}

	writeJSONError(w, status, code, err.Error())
}
