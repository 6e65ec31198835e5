package roadmap

import (
	"math"
	"sort"
	"time"

	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEK PROGRESS
// One WeekProgress per week number. CompletionPercentage is derived and
// recomputed on every mutation; it is never trusted as independently
// authoritative.
// ══════════════════════════════════════════════════════════════════════════════

// WeekProgress tracks completion state for a single week.
type WeekProgress struct {
	// WeekNumber matches Week.WeekNumber (unique key).
	WeekNumber int `json:"week_number"`

	// CompletedTasks is a set of opaque item ids ("task-N" or "subtopic-N").
	// Insertion order is irrelevant.
	CompletedTasks []string `json:"completed_tasks"`

	// TotalTasks is the number of week-level tasks.
	TotalTasks int `json:"total_tasks"`

	// CompletionPercentage is derived, 0-100.
	CompletionPercentage int `json:"completion_percentage"`

	// LastUpdated is the time of the last mutation.
	LastUpdated time.Time `json:"last_updated"`
}

// ItemTotals carries the denominators for percentage computation.
// Subtopics is the explicit subtopic count supplied by the caller; when a
// week has no generated subtopics it is zero and TotalTasks governs.
type ItemTotals struct {
	Tasks     int
	Subtopics int
}

// IsCompleted reports whether the given item id is in the completed set.
func (wp *WeekProgress) IsCompleted(itemID string) bool {
	for _, id := range wp.CompletedTasks {
		if id == itemID {
			return true
		}
	}
	return false
}

// Toggle adds or removes an item id and recomputes the percentage.
// A mutation that would leave both id families in the completed set is
// rejected with ErrMixedItemFamilies: the percentage heuristic is only
// sound over a homogeneous set.
func (wp *WeekProgress) Toggle(itemID string, completed bool, totals ItemTotals) error {
	if _, _, err := ParseItemID(itemID); err != nil {
		return shared.WrapError("roadmap", "Toggle", shared.ErrInvalidFormat, "invalid item id", err)
	}

	next := make([]string, 0, len(wp.CompletedTasks)+1)
	for _, id := range wp.CompletedTasks {
		if id != itemID {
			next = append(next, id)
		}
	}
	if completed {
		next = append(next, itemID)
	}

	if containsFamily(next, FamilyTask) && containsFamily(next, FamilySubtopic) {
		return shared.ErrMixedItemFamilies
	}

	wp.CompletedTasks = next
	wp.recompute(totals)
	wp.LastUpdated = time.Now().UTC()
	return nil
}

// recompute derives CompletionPercentage from the completed set using the
// prefix-family rule: if any subtopic id is present, the percentage is
// computed over the subtopic count; otherwise over TotalTasks.
func (wp *WeekProgress) recompute(totals ItemTotals) {
	family := FamilyTask
	if containsFamily(wp.CompletedTasks, FamilySubtopic) {
		family = FamilySubtopic
	}

	total := wp.TotalTasks
	if totals.Tasks > 0 {
		total = totals.Tasks
	}
	if family == FamilySubtopic {
		total = totals.Subtopics
	}

	done := 0
	for _, id := range wp.CompletedTasks {
		if ItemIDFamily(id) == family {
			done++
		}
	}

	wp.CompletionPercentage = percentage(done, total)
}

// percentage computes round(100*done/total) clamped to [0, 100].
// A zero total yields 0 (no division by zero).
func percentage(done, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(done) * 100 / float64(total)))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func containsFamily(ids []string, family ItemFamily) bool {
	for _, id := range ids {
		if ItemIDFamily(id) == family {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS LIST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// SeedProgress builds an all-zero progress array sized from the roadmap's
// per-week task counts. Used after pipeline generation.
func SeedProgress(rm *Roadmap) []WeekProgress {
	if rm == nil {
		return nil
	}

	now := time.Now().UTC()
	progress := make([]WeekProgress, 0, len(rm.Weeks))
	for _, week := range rm.Weeks {
		progress = append(progress, WeekProgress{
			WeekNumber:           week.WeekNumber,
			CompletedTasks:       []string{},
			TotalTasks:           len(week.Tasks),
			CompletionPercentage: 0,
			LastUpdated:          now,
		})
	}
	return progress
}

// FindWeekProgress returns the progress entry for the given week, or nil.
func FindWeekProgress(progress []WeekProgress, weekNumber int) *WeekProgress {
	for i := range progress {
		if progress[i].WeekNumber == weekNumber {
			return &progress[i]
		}
	}
	return nil
}

// CloneProgress deep-copies a progress list. Snapshots taken before an
// optimistic mutation must not alias the live state.
func CloneProgress(progress []WeekProgress) []WeekProgress {
	if progress == nil {
		return nil
	}

	out := make([]WeekProgress, len(progress))
	for i, wp := range progress {
		out[i] = wp
		out[i].CompletedTasks = make([]string, len(wp.CompletedTasks))
		copy(out[i].CompletedTasks, wp.CompletedTasks)
	}
	return out
}

// SortProgress orders the list by week number in place.
func SortProgress(progress []WeekProgress) {
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].WeekNumber < progress[j].WeekNumber
	})
}
