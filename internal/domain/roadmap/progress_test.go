package roadmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
)

func TestParseItemID(t *testing.T) {
	tests := []struct {
		id         string
		wantFamily ItemFamily
		wantIndex  int
		wantErr    bool
	}{
		{"task-0", FamilyTask, 0, false},
		{"task-12", FamilyTask, 12, false},
		{"subtopic-3", FamilySubtopic, 3, false},
		{"task-", "", 0, true},
		{"task--1", "", 0, true},
		{"lesson-1", "", 0, true},
		{"task", "", 0, true},
		{"", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			family, index, err := ParseItemID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFamily, family)
			assert.Equal(t, tt.wantIndex, index)
		})
	}
}

func TestWeekProgress_Toggle(t *testing.T) {
	totals := ItemTotals{Tasks: 4}

	t.Run("complete then uncomplete restores prior state", func(t *testing.T) {
		wp := WeekProgress{WeekNumber: 1, TotalTasks: 4, CompletedTasks: []string{"task-0"}}
		wp.recompute(totals)
		before := wp.CompletedTasks
		beforePct := wp.CompletionPercentage

		require.NoError(t, wp.Toggle("task-1", true, totals))
		assert.Equal(t, 50, wp.CompletionPercentage)

		require.NoError(t, wp.Toggle("task-1", false, totals))
		assert.ElementsMatch(t, before, wp.CompletedTasks)
		assert.Equal(t, beforePct, wp.CompletionPercentage)
	})

	t.Run("percentage over tasks", func(t *testing.T) {
		wp := WeekProgress{WeekNumber: 1, TotalTasks: 3}
		require.NoError(t, wp.Toggle("task-0", true, ItemTotals{Tasks: 3}))
		assert.Equal(t, 33, wp.CompletionPercentage)

		require.NoError(t, wp.Toggle("task-1", true, ItemTotals{Tasks: 3}))
		assert.Equal(t, 67, wp.CompletionPercentage)

		require.NoError(t, wp.Toggle("task-2", true, ItemTotals{Tasks: 3}))
		assert.Equal(t, 100, wp.CompletionPercentage)
	})

	t.Run("percentage over subtopics when subtopic ids present", func(t *testing.T) {
		wp := WeekProgress{WeekNumber: 2, TotalTasks: 4}
		require.NoError(t, wp.Toggle("subtopic-0", true, ItemTotals{Tasks: 4, Subtopics: 5}))
		assert.Equal(t, 20, wp.CompletionPercentage)
	})

	t.Run("zero totals give zero percent", func(t *testing.T) {
		wp := WeekProgress{WeekNumber: 3, TotalTasks: 0}
		require.NoError(t, wp.Toggle("task-0", true, ItemTotals{}))
		assert.Equal(t, 0, wp.CompletionPercentage)
	})

	t.Run("mixed families rejected", func(t *testing.T) {
		wp := WeekProgress{WeekNumber: 1, TotalTasks: 4, CompletedTasks: []string{"task-0"}}
		err := wp.Toggle("subtopic-1", true, ItemTotals{Tasks: 4, Subtopics: 3})

		assert.ErrorIs(t, err, shared.ErrMixedItemFamilies)
		assert.Equal(t, []string{"task-0"}, wp.CompletedTasks)
	})

	t.Run("invalid item id rejected", func(t *testing.T) {
		wp := WeekProgress{WeekNumber: 1, TotalTasks: 4}
		err := wp.Toggle("bogus", true, totals)
		assert.ErrorIs(t, err, shared.ErrInvalidFormat)
	})

	t.Run("toggle is idempotent for repeated completes", func(t *testing.T) {
		wp := WeekProgress{WeekNumber: 1, TotalTasks: 2}
		require.NoError(t, wp.Toggle("task-0", true, ItemTotals{Tasks: 2}))
		require.NoError(t, wp.Toggle("task-0", true, ItemTotals{Tasks: 2}))

		assert.Equal(t, []string{"task-0"}, wp.CompletedTasks)
		assert.Equal(t, 50, wp.CompletionPercentage)
	})
}

func TestSeedProgress(t *testing.T) {
	rm := &Roadmap{Weeks: []Week{
		{WeekNumber: 1, Tasks: []string{"a", "b", "c"}},
		{WeekNumber: 2, Tasks: []string{"d"}},
	}}

	progress := SeedProgress(rm)
	require.Len(t, progress, 2)

	assert.Equal(t, 1, progress[0].WeekNumber)
	assert.Equal(t, 3, progress[0].TotalTasks)
	assert.Empty(t, progress[0].CompletedTasks)
	assert.Equal(t, 0, progress[0].CompletionPercentage)
	assert.Equal(t, 1, progress[1].TotalTasks)
}

func TestCloneProgress(t *testing.T) {
	original := []WeekProgress{
		{WeekNumber: 1, CompletedTasks: []string{"task-0"}, TotalTasks: 2},
	}

	clone := CloneProgress(original)
	clone[0].CompletedTasks[0] = "task-1"
	clone[0].CompletionPercentage = 50

	assert.Equal(t, "task-0", original[0].CompletedTasks[0])
	assert.Equal(t, 0, original[0].CompletionPercentage)
}

func TestResolveSubtopics(t *testing.T) {
	t.Run("mixed string and object forms", func(t *testing.T) {
		raw := json.RawMessage(`["Closures", {"title": "Goroutines", "description": "Lightweight threads"}]`)

		subtopics, err := ResolveSubtopics(raw)
		require.NoError(t, err)
		require.Len(t, subtopics, 2)

		assert.Equal(t, SubtopicTitle, subtopics[0].Kind)
		assert.Equal(t, "Closures", subtopics[0].Title)
		assert.Equal(t, SubtopicDetailed, subtopics[1].Kind)
		assert.Equal(t, "Lightweight threads", subtopics[1].Description)
	})

	t.Run("empty input", func(t *testing.T) {
		subtopics, err := ResolveSubtopics(nil)
		require.NoError(t, err)
		assert.Nil(t, subtopics)
	})

	t.Run("object without title rejected", func(t *testing.T) {
		_, err := ResolveSubtopics(json.RawMessage(`[{"description": "no title"}]`))
		assert.Error(t, err)
	})
}

func TestEligibility(t *testing.T) {
	t.Run("nil profile", func(t *testing.T) {
		status := Eligibility(nil)
		assert.False(t, status.CanRunPipeline)
		assert.False(t, status.OnboardingCompleted)
		assert.Contains(t, status.MissingRequirements, "Complete onboarding process")
	})

	t.Run("incomplete profile", func(t *testing.T) {
		status := Eligibility(&OnboardingProfile{Major: "CS", ExperienceLevel: "beginner"})
		assert.False(t, status.CanRunPipeline)
		assert.True(t, status.OnboardingCompleted)
		assert.Contains(t, status.MissingRequirements, "Academic year")
		assert.Contains(t, status.MissingRequirements, "Target roles")
	})

	t.Run("complete profile", func(t *testing.T) {
		status := Eligibility(&OnboardingProfile{
			CurrentYear:         "junior",
			Major:               "CS",
			ExperienceLevel:     "intermediate",
			TargetRoles:         []string{"Backend Engineer"},
			ApplicationTimeline: "3_months",
		})
		assert.True(t, status.CanRunPipeline)
		assert.Equal(t, "Ready to run pipeline", status.Reason)
		assert.Empty(t, status.MissingRequirements)
	})
}
