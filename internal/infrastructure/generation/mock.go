package generation

import (
	"fmt"
	"strings"
	"time"

	"github.com/SuWh1/InternAI-sub001/internal/domain/roadmap"
)

// ══════════════════════════════════════════════════════════════════════════════
// MOCK GENERATION
// Used when no API key is configured, so the application stays fully usable
// in local development. Mock output is deterministic for a given profile.
// ══════════════════════════════════════════════════════════════════════════════

const mockTotalWeeks = 12

// mockRoadmap builds a basic 12-week roadmap without calling the provider.
func mockRoadmap(profile *roadmap.OnboardingProfile) *roadmap.Roadmap {
	stack := "your preferred tech stack"
	if profile != nil && len(profile.PreferredTechStack) > 0 {
		stack = strings.Join(profile.PreferredTechStack, ", ")
	}

	weeks := make([]roadmap.Week, 0, mockTotalWeeks)
	for i := 1; i <= mockTotalWeeks; i++ {
		weeks = append(weeks, roadmap.Week{
			WeekNumber: i,
			Theme:      fmt.Sprintf("Week %d: Preparation Phase %d", i, (i-1)/3+1),
			FocusArea:  "general_preparation",
			Tasks: []string{
				fmt.Sprintf("Study fundamental concepts in %s", stack),
				"Practice coding problems appropriate to your level",
				"Work on building or improving your portfolio",
				"Research companies and internship opportunities",
			},
			EstimatedHours: 12,
			Deliverables:   []string{"Weekly progress summary"},
			Resources:      []string{"Online coding platforms", "Official documentation", "Industry blogs"},
		})
	}

	return &roadmap.Roadmap{
		Weeks:                  weeks,
		PersonalizationSummary: "Basic preparation roadmap. Configure an API key for a personalized plan.",
	}
}

// mockMetadata records that the result was produced without a model call.
func mockMetadata(start time.Time) roadmap.GenerationMetadata {
	return roadmap.GenerationMetadata{
		Model:       "mock",
		GeneratedAt: start.UTC(),
		Duration:    time.Since(start),
		MockData:    true,
	}
}

// mockSubtopics builds placeholder subtopics for a topic.
func mockSubtopics(topic string) []roadmap.Subtopic {
	titles := []string{
		fmt.Sprintf("%s fundamentals", topic),
		fmt.Sprintf("Core concepts of %s", topic),
		fmt.Sprintf("%s in practice", topic),
		fmt.Sprintf("Common %s pitfalls", topic),
	}

	subtopics := make([]roadmap.Subtopic, 0, len(titles))
	for _, title := range titles {
		subtopics = append(subtopics, roadmap.NewTitleSubtopic(title))
	}
	return subtopics
}

// mockLessonContent builds a placeholder lesson body.
func mockLessonContent(topic, userLevel string) string {
	return fmt.Sprintf(`# %s

This is a locally generated placeholder lesson for a %s learner. Configure an API key to get a full AI-generated explanation.

## What to do instead

- Read the official documentation for %s
- Find a hands-on tutorial and code along
- Write a small practice program exercising what you learned
`, topic, userLevel, topic)
}
