package roadmap

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// STORE INTERFACE
// The remote progress store collaborator. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Store persists one roadmap + progress record per user.
type Store interface {
	// Fetch returns the user's roadmap and progress.
	// Returns ErrRoadmapNotFound when the user has no roadmap yet, an
	// expected, non-fatal condition for new users.
	Fetch(ctx context.Context, userID string) (*UserRoadmap, error)

	// SaveProgress replaces the entire progress array for the user.
	// Single-item deltas are never persisted.
	SaveProgress(ctx context.Context, userID string, progress []WeekProgress) error

	// Upsert creates or replaces the user's roadmap record.
	Upsert(ctx context.Context, record *UserRoadmap) error

	// Onboarding returns the user's onboarding profile, or ErrNotFound.
	Onboarding(ctx context.Context, userID string) (*OnboardingProfile, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// PIPELINE ELIGIBILITY
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingProfile holds the fields the generation pipeline personalizes on.
type OnboardingProfile struct {
	UserID                  string   `json:"user_id"`
	CurrentYear             string   `json:"current_year"`
	Major                   string   `json:"major"`
	ExperienceLevel         string   `json:"experience_level"`
	TargetRoles             []string `json:"target_roles"`
	PreferredTechStack      []string `json:"preferred_tech_stack"`
	ApplicationTimeline     string   `json:"application_timeline"`
	HasInternshipExperience bool     `json:"has_internship_experience"`
}

// PipelineStatus reports whether the generation pipeline can run for a user.
type PipelineStatus struct {
	CanRunPipeline      bool     `json:"can_run_pipeline"`
	Reason              string   `json:"reason"`
	MissingRequirements []string `json:"missing_requirements"`
	OnboardingCompleted bool     `json:"onboarding_completed"`
}

// Eligibility derives the pipeline status from an onboarding profile.
// A nil profile means onboarding has not been completed at all.
func Eligibility(profile *OnboardingProfile) PipelineStatus {
	if profile == nil {
		return PipelineStatus{
			CanRunPipeline:      false,
			Reason:              "Onboarding not completed",
			MissingRequirements: []string{"Complete onboarding process"},
			OnboardingCompleted: false,
		}
	}

	var missing []string
	if profile.CurrentYear == "" {
		missing = append(missing, "Academic year")
	}
	if profile.Major == "" {
		missing = append(missing, "Major/field of study")
	}
	if profile.ExperienceLevel == "" {
		missing = append(missing, "Experience level")
	}
	if len(profile.TargetRoles) == 0 {
		missing = append(missing, "Target roles")
	}
	if profile.ApplicationTimeline == "" {
		missing = append(missing, "Application timeline")
	}

	status := PipelineStatus{
		CanRunPipeline:      len(missing) == 0,
		MissingRequirements: missing,
		OnboardingCompleted: true,
	}
	if status.CanRunPipeline {
		status.Reason = "Ready to run pipeline"
	} else {
		status.Reason = "Missing required onboarding information"
	}
	return status
}
