// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the learning session.
const (
	// Progress events
	EventTaskToggled     EventType = "progress.task_toggled"
	EventWeekCompleted   EventType = "progress.week_completed"
	EventWeekUnlocked    EventType = "progress.week_unlocked"
	EventProgressPersist EventType = "progress.persisted"
	EventProgressRevert  EventType = "progress.reverted"
	EventProgressRefresh EventType = "progress.refreshed"

	// Roadmap events
	EventRoadmapGenerated EventType = "roadmap.generated"
	EventRoadmapLoaded    EventType = "roadmap.loaded"

	// Lesson events
	EventLessonResolved  EventType = "lesson.resolved"
	EventContentGenerate EventType = "lesson.content_generated"
	EventContentCacheHit EventType = "lesson.content_cache_hit"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// TaskToggledEvent is emitted when a task or subtopic completion is toggled.
type TaskToggledEvent struct {
	BaseEvent
	WeekNumber int    `json:"week_number"`
	ItemID     string `json:"item_id"`
	Completed  bool   `json:"completed"`
	Percentage int    `json:"percentage"`
}

// Payload implements Event interface.
func (e TaskToggledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"week_number": e.WeekNumber,
		"item_id":     e.ItemID,
		"completed":   e.Completed,
		"percentage":  e.Percentage,
	}
}

// NewTaskToggledEvent creates a new TaskToggledEvent.
func NewTaskToggledEvent(userID string, weekNumber int, itemID string, completed bool, percentage int) TaskToggledEvent {
	return TaskToggledEvent{
		BaseEvent:  NewBaseEvent(EventTaskToggled, userID),
		WeekNumber: weekNumber,
		ItemID:     itemID,
		Completed:  completed,
		Percentage: percentage,
	}
}

// WeekCompletedEvent is emitted when a week reaches 100% completion,
// unlocking the next week.
type WeekCompletedEvent struct {
	BaseEvent
	WeekNumber     int `json:"week_number"`
	UnlockedWeek   int `json:"unlocked_week,omitempty"`
	CompletedTasks int `json:"completed_tasks"`
}

// Payload implements Event interface.
func (e WeekCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"week_number":     e.WeekNumber,
		"unlocked_week":   e.UnlockedWeek,
		"completed_tasks": e.CompletedTasks,
	}
}

// NewWeekCompletedEvent creates a new WeekCompletedEvent.
func NewWeekCompletedEvent(userID string, weekNumber, unlockedWeek, completedTasks int) WeekCompletedEvent {
	return WeekCompletedEvent{
		BaseEvent:      NewBaseEvent(EventWeekCompleted, userID),
		WeekNumber:     weekNumber,
		UnlockedWeek:   unlockedWeek,
		CompletedTasks: completedTasks,
	}
}

// ProgressRevertedEvent is emitted when an optimistic mutation is rolled back
// after a failed persist.
type ProgressRevertedEvent struct {
	BaseEvent
	WeekNumber int    `json:"week_number"`
	ItemID     string `json:"item_id"`
	Reason     string `json:"reason"`
}

// Payload implements Event interface.
func (e ProgressRevertedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"week_number": e.WeekNumber,
		"item_id":     e.ItemID,
		"reason":      e.Reason,
	}
}

// NewProgressRevertedEvent creates a new ProgressRevertedEvent.
func NewProgressRevertedEvent(userID string, weekNumber int, itemID, reason string) ProgressRevertedEvent {
	return ProgressRevertedEvent{
		BaseEvent:  NewBaseEvent(EventProgressRevert, userID),
		WeekNumber: weekNumber,
		ItemID:     itemID,
		Reason:     reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Roadmap Events
// ═══════════════════════════════════════════════════════════════════════════

// RoadmapGeneratedEvent is emitted when the generation pipeline produces a new roadmap.
type RoadmapGeneratedEvent struct {
	BaseEvent
	TotalWeeks int    `json:"total_weeks"`
	Model      string `json:"model,omitempty"`
	MockData   bool   `json:"mock_data"`
}

// Payload implements Event interface.
func (e RoadmapGeneratedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"total_weeks": e.TotalWeeks,
		"model":       e.Model,
		"mock_data":   e.MockData,
	}
}

// NewRoadmapGeneratedEvent creates a new RoadmapGeneratedEvent.
func NewRoadmapGeneratedEvent(userID string, totalWeeks int, model string, mock bool) RoadmapGeneratedEvent {
	return RoadmapGeneratedEvent{
		BaseEvent:  NewBaseEvent(EventRoadmapGenerated, userID),
		TotalWeeks: totalWeeks,
		Model:      model,
		MockData:   mock,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Lesson Events
// ═══════════════════════════════════════════════════════════════════════════

// ContentGeneratedEvent is emitted when lesson content is generated remotely.
type ContentGeneratedEvent struct {
	BaseEvent
	Topic      string `json:"topic"`
	WeekNumber int    `json:"week_number"`
	Cached     bool   `json:"cached"`
	Forced     bool   `json:"forced"`
}

// Payload implements Event interface.
func (e ContentGeneratedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"topic":       e.Topic,
		"week_number": e.WeekNumber,
		"cached":      e.Cached,
		"forced":      e.Forced,
	}
}

// NewContentGeneratedEvent creates a new ContentGeneratedEvent.
func NewContentGeneratedEvent(userID, topic string, weekNumber int, cached, forced bool) ContentGeneratedEvent {
	return ContentGeneratedEvent{
		BaseEvent:  NewBaseEvent(EventContentGenerate, userID),
		Topic:      topic,
		WeekNumber: weekNumber,
		Cached:     cached,
		Forced:     forced,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
