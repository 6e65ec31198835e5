package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ROADMAPS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create roadmaps table
-- Version: 001

-- One record per user. The roadmap and its progress are JSONB documents:
-- the progress document is always replaced as a whole array.
CREATE TABLE IF NOT EXISTS roadmaps (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL UNIQUE,
    roadmap_data JSONB NOT NULL,
    progress_data JSONB NOT NULL DEFAULT '[]'::jsonb,
    ai_generated BOOLEAN NOT NULL DEFAULT FALSE,
    generation_metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_roadmaps_user_id ON roadmaps(user_id);
CREATE INDEX IF NOT EXISTS idx_roadmaps_updated_at ON roadmaps(updated_at DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS roadmaps;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ONBOARDING
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create onboarding_data table
-- Version: 002

-- Onboarding answers the generation pipeline personalizes on. Pipeline
-- eligibility is derived from which of these fields are filled in.
CREATE TABLE IF NOT EXISTS onboarding_data (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL UNIQUE,
    current_year VARCHAR(50),
    major VARCHAR(100),
    experience_level VARCHAR(50),
    target_roles TEXT[] NOT NULL DEFAULT '{}',
    preferred_tech_stack TEXT[] NOT NULL DEFAULT '{}',
    application_timeline VARCHAR(50),
    has_internship_experience BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_onboarding_data_user_id ON onboarding_data(user_id);
`

const migration002Down = `
DROP TABLE IF EXISTS onboarding_data;
`
