package generation

import (
	"fmt"
	"strings"

	"github.com/SuWh1/InternAI-sub001/internal/domain/roadmap"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROMPTS
// ══════════════════════════════════════════════════════════════════════════════

const roadmapSystemPrompt = `You are an expert career coach specializing in internship preparation for top technology companies. You create personalized multi-week preparation roadmaps. Always return valid JSON only, no markdown fences, no commentary.`

const roadmapOutputFormat = `OUTPUT FORMAT: Return valid JSON only, structured as:
{
  "weeks": [
    {
      "week_number": 1,
      "theme": "string",
      "focus_area": "string",
      "tasks": ["specific actionable task", ...],
      "estimated_hours": 15,
      "deliverables": ["concrete output", ...],
      "resources": ["learning resource", ...]
    }
  ],
  "personalization_summary": "one paragraph explaining how the roadmap was tailored"
}`

// roadmapPrompt builds the user prompt for full roadmap generation. The
// roadmap follows a fixed 12-week, 4-phase structure: tech stack mastery,
// interview preparation, portfolio projects, interview mastery.
func roadmapPrompt(profile *roadmap.OnboardingProfile) string {
	var b strings.Builder

	b.WriteString("Create a personalized 12-week internship preparation roadmap.\n\n")
	b.WriteString("STUDENT PROFILE:\n")
	fmt.Fprintf(&b, "- Academic year: %s\n", profile.CurrentYear)
	fmt.Fprintf(&b, "- Major: %s\n", profile.Major)
	fmt.Fprintf(&b, "- Experience level: %s\n", profile.ExperienceLevel)
	fmt.Fprintf(&b, "- Target roles: %s\n", strings.Join(profile.TargetRoles, ", "))
	if len(profile.PreferredTechStack) > 0 {
		fmt.Fprintf(&b, "- Preferred tech stack: %s\n", strings.Join(profile.PreferredTechStack, ", "))
	}
	fmt.Fprintf(&b, "- Application timeline: %s\n", profile.ApplicationTimeline)
	fmt.Fprintf(&b, "- Prior internship experience: %t\n", profile.HasInternshipExperience)

	b.WriteString(`
MANDATORY STRUCTURE:
- Weeks 1-4: tech stack mastery for the student's preferred stack
- Weeks 5-9: technical interview preparation, easy to hard progression
- Weeks 10-11: production-quality portfolio projects
- Weeks 11-12: interview mastery, mock interviews and final polish

REQUIREMENTS:
- Exactly 12 weeks, week_number 1-based and contiguous
- 3-5 specific tasks per week
- Realistic estimated_hours (12-25 per week)
- Concrete deliverables and high-quality resources per week

`)
	b.WriteString(roadmapOutputFormat)
	return b.String()
}

const subtopicsSystemPrompt = `You are a curriculum designer. Break a learning topic into focused subtopics. Always return valid JSON only.`

// subtopicsPrompt builds the user prompt for subtopic generation. The model
// may return bare strings or {title, description} objects; both forms are
// accepted at ingestion.
func subtopicsPrompt(topic, lessonContext, userLevel string) string {
	return fmt.Sprintf(`Break the topic %q into 4-6 focused subtopics for a %s learner.

CONTEXT: %s

OUTPUT FORMAT: Return valid JSON only, structured as:
{"subtopics": [{"title": "string", "description": "one sentence"}, ...]}`,
		topic, userLevel, lessonContext)
}

const lessonSystemPrompt = `You are a patient technical tutor. Write clear, practical lesson explanations in markdown with short code examples where they help.`

// lessonPrompt builds the user prompt for per-topic lesson content.
func lessonPrompt(topic, lessonContext, userLevel string) string {
	return fmt.Sprintf(`Write a lesson explaining %q for a %s learner.

CONTEXT: %s

Cover the core concepts, a worked example, common pitfalls, and a short practice suggestion. Keep it focused and practical.`,
		topic, userLevel, lessonContext)
}
