// Package roadmap contains the roadmap aggregate: weekly learning plans,
// per-week progress tracking, the item identifier scheme, and the pure
// week-unlock policy. Implementations of the Store interface live in
// infrastructure/persistence.
package roadmap

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROADMAP ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Roadmap is an ordered sequence of weekly learning plans. It is immutable
// once generated; only a full pipeline regeneration replaces it.
type Roadmap struct {
	// Weeks are ordered by WeekNumber (1-based, contiguous).
	Weeks []Week `json:"weeks"`

	// PersonalizationSummary describes how the roadmap was tailored.
	PersonalizationSummary string `json:"personalization_summary,omitempty"`
}

// Week is a single weekly learning plan.
type Week struct {
	// WeekNumber is 1-based and unique within a roadmap.
	WeekNumber int `json:"week_number"`

	// Theme is the headline for the week.
	Theme string `json:"theme"`

	// FocusArea categorizes the week (e.g. "algorithms_data_structures").
	FocusArea string `json:"focus_area"`

	// Tasks are the completable week-level items, in order.
	Tasks []string `json:"tasks"`

	// EstimatedHours is the expected weekly effort.
	EstimatedHours int `json:"estimated_hours"`

	// Deliverables are the concrete outputs expected from the week.
	Deliverables []string `json:"deliverables"`

	// Resources are suggested learning materials.
	Resources []string `json:"resources"`

	// Subtopics are finer-grained generated items, resolved at ingestion.
	// Empty until subtopic generation has run for this week.
	Subtopics []Subtopic `json:"subtopics,omitempty"`
}

// TotalWeeks returns the number of weeks in the roadmap.
func (r *Roadmap) TotalWeeks() int {
	if r == nil {
		return 0
	}
	return len(r.Weeks)
}

// FindWeek returns the week with the given number, or nil if absent.
func (r *Roadmap) FindWeek(weekNumber int) *Week {
	if r == nil {
		return nil
	}
	for i := range r.Weeks {
		if r.Weeks[i].WeekNumber == weekNumber {
			return &r.Weeks[i]
		}
	}
	return nil
}

// Validate checks roadmap structural invariants: week numbers must be
// 1-based, unique, and contiguous.
func (r *Roadmap) Validate() error {
	for i := range r.Weeks {
		if r.Weeks[i].WeekNumber != i+1 {
			return fmt.Errorf("roadmap: week at index %d has number %d, want %d",
				i, r.Weeks[i].WeekNumber, i+1)
		}
	}
	return nil
}

// GenerationMetadata records how and when a roadmap was produced.
type GenerationMetadata struct {
	Model                  string        `json:"model,omitempty"`
	GeneratedAt            time.Time     `json:"generated_at"`
	Duration               time.Duration `json:"duration,omitempty"`
	MockData               bool          `json:"mock_data,omitempty"`
	PersonalizationFactors []string      `json:"personalization_factors,omitempty"`
}

// UserRoadmap bundles a user's roadmap with its progress, as stored.
type UserRoadmap struct {
	UserID      string             `json:"user_id"`
	Roadmap     *Roadmap           `json:"roadmap"`
	Progress    []WeekProgress     `json:"progress"`
	AIGenerated bool               `json:"ai_generated"`
	Metadata    GenerationMetadata `json:"generation_metadata"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ITEM IDENTIFIERS
// Item ids carry a typed prefix: "task-<index>" for week-level tasks,
// "subtopic-<index>" for generated subtopics. The index is the item's
// position in its owning week's list.
// ══════════════════════════════════════════════════════════════════════════════

// ItemFamily distinguishes the two kinds of completable items.
type ItemFamily string

const (
	// FamilyTask marks week-level task items ("task-<index>").
	FamilyTask ItemFamily = "task"

	// FamilySubtopic marks generated subtopic items ("subtopic-<index>").
	FamilySubtopic ItemFamily = "subtopic"
)

// TaskItemID builds the id for the task at the given index.
func TaskItemID(index int) string {
	return fmt.Sprintf("task-%d", index)
}

// SubtopicItemID builds the id for the subtopic at the given index.
func SubtopicItemID(index int) string {
	return fmt.Sprintf("subtopic-%d", index)
}

// ParseItemID splits an item id into family and index.
// Returns ErrInvalidItemID (via ok=false) semantics through the error value.
func ParseItemID(id string) (ItemFamily, int, error) {
	family, rest, found := strings.Cut(id, "-")
	if !found {
		return "", 0, fmt.Errorf("roadmap: item id %q has no prefix", id)
	}

	f := ItemFamily(family)
	if f != FamilyTask && f != FamilySubtopic {
		return "", 0, fmt.Errorf("roadmap: item id %q has unknown family %q", id, family)
	}

	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("roadmap: item id %q has invalid index", id)
	}

	return f, index, nil
}

// ItemIDFamily returns the family of an item id, or "" if malformed.
func ItemIDFamily(id string) ItemFamily {
	family, _, err := ParseItemID(id)
	if err != nil {
		return ""
	}
	return family
}
