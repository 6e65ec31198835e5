package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SuWh1/InternAI-sub001/internal/domain/roadmap"
	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROADMAP REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RoadmapRepository implements roadmap.Store for PostgreSQL. The roadmap and
// progress documents are JSONB columns on a single row per user.
type RoadmapRepository struct {
	conn *Connection
}

// NewRoadmapRepository creates a new RoadmapRepository.
func NewRoadmapRepository(conn *Connection) *RoadmapRepository {
	return &RoadmapRepository{conn: conn}
}

// Fetch returns the user's roadmap and progress, or ErrRoadmapNotFound when
// no record exists yet. A missing record is the normal state for new users.
func (r *RoadmapRepository) Fetch(ctx context.Context, userID string) (*roadmap.UserRoadmap, error) {
	query := `
		SELECT user_id, roadmap_data, progress_data, ai_generated, generation_metadata, updated_at
		FROM roadmaps
		WHERE user_id = $1
	`

	var (
		record       roadmap.UserRoadmap
		roadmapJSON  []byte
		progressJSON []byte
		metadataJSON []byte
	)
	row := r.conn.QueryRow(ctx, query, userID)
	err := row.Scan(
		&record.UserID,
		&roadmapJSON,
		&progressJSON,
		&record.AIGenerated,
		&metadataJSON,
		&record.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRoadmapNotFound
		}
		return nil, fmt.Errorf("failed to fetch roadmap: %w", err)
	}

	record.Roadmap = &roadmap.Roadmap{}
	if err := json.Unmarshal(roadmapJSON, record.Roadmap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roadmap data: %w", err)
	}
	if err := json.Unmarshal(progressJSON, &record.Progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress data: %w", err)
	}
	if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generation metadata: %w", err)
	}
	roadmap.SortProgress(record.Progress)

	return &record, nil
}

// SaveProgress replaces the user's entire progress document. There is no
// per-item update path.
func (r *RoadmapRepository) SaveProgress(ctx context.Context, userID string, progress []roadmap.WeekProgress) error {
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	query := `
		UPDATE roadmaps
		SET progress_data = $2, updated_at = $3
		WHERE user_id = $1
	`
	tag, err := r.conn.Exec(ctx, query, userID, progressJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrRoadmapNotFound
	}
	return nil
}

// Upsert creates or replaces the user's roadmap record. Used after pipeline
// generation, which always produces a full record.
func (r *RoadmapRepository) Upsert(ctx context.Context, record *roadmap.UserRoadmap) error {
	roadmapJSON, err := json.Marshal(record.Roadmap)
	if err != nil {
		return fmt.Errorf("failed to marshal roadmap: %w", err)
	}
	progressJSON, err := json.Marshal(record.Progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal generation metadata: %w", err)
	}

	query := `
		INSERT INTO roadmaps (user_id, roadmap_data, progress_data, ai_generated, generation_metadata, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			roadmap_data = EXCLUDED.roadmap_data,
			progress_data = EXCLUDED.progress_data,
			ai_generated = EXCLUDED.ai_generated,
			generation_metadata = EXCLUDED.generation_metadata,
			updated_at = EXCLUDED.updated_at
	`
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err = r.conn.Exec(ctx, query,
		record.UserID,
		roadmapJSON,
		progressJSON,
		record.AIGenerated,
		metadataJSON,
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert roadmap: %w", err)
	}
	return nil
}

// Onboarding returns the user's onboarding profile, or ErrNotFound when
// onboarding has not been completed.
func (r *RoadmapRepository) Onboarding(ctx context.Context, userID string) (*roadmap.OnboardingProfile, error) {
	query := `
		SELECT user_id, current_year, major, experience_level, target_roles,
			   preferred_tech_stack, application_timeline, has_internship_experience
		FROM onboarding_data
		WHERE user_id = $1
	`

	var (
		profile             roadmap.OnboardingProfile
		currentYear         *string
		major               *string
		experienceLevel     *string
		applicationTimeline *string
	)
	row := r.conn.QueryRow(ctx, query, userID)
	err := row.Scan(
		&profile.UserID,
		&currentYear,
		&major,
		&experienceLevel,
		&profile.TargetRoles,
		&profile.PreferredTechStack,
		&applicationTimeline,
		&profile.HasInternshipExperience,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch onboarding profile: %w", err)
	}

	if currentYear != nil {
		profile.CurrentYear = *currentYear
	}
	if major != nil {
		profile.Major = *major
	}
	if experienceLevel != nil {
		profile.ExperienceLevel = *experienceLevel
	}
	if applicationTimeline != nil {
		profile.ApplicationTimeline = *applicationTimeline
	}

	return &profile, nil
}
