// Package lesson contains lesson identity: the durable, human-readable slug
// scheme used as a deep-link key for generated lesson content, independent of
// any database-assigned id.
package lesson

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON IDENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Identity binds a slug to the topic, free-text context, and week it was
// created for. Persisted in durable storage keyed by slug.
type Identity struct {
	Slug       string    `json:"slug"`
	Topic      string    `json:"topic"`
	Context    string    `json:"context"`
	WeekNumber int       `json:"week_number"`
	CreatedAt  time.Time `json:"created_at"`

	// Reconstructed marks identities rebuilt from the slug alone; their
	// Context is a synthesized placeholder, not the original free text.
	Reconstructed bool `json:"reconstructed,omitempty"`
}

// slugPattern matches "<topic-part>-week-<number>".
var slugPattern = regexp.MustCompile(`^(.+)-week-(\d+)$`)

// nonSlugChars matches everything except word characters, spaces, and hyphens.
var nonSlugChars = regexp.MustCompile(`[^\w\s-]`)

// separatorRuns matches runs of whitespace and underscores.
var separatorRuns = regexp.MustCompile(`[\s_]+`)

// Slugify converts free text into a lowercase, url-safe slug fragment:
// non-word characters are stripped, whitespace and underscores collapse to
// single hyphens, and leading/trailing hyphens are trimmed.
func Slugify(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))
	out = nonSlugChars.ReplaceAllString(out, "")
	out = separatorRuns.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// Unslugify reverses Slugify best-effort: hyphens become spaces and each
// word is title-cased. Case information lost by Slugify is not recoverable.
func Unslugify(s string) string {
	words := strings.Split(s, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// MakeSlug derives the slug for a (topic, week) pair.
func MakeSlug(topic string, weekNumber int) string {
	return fmt.Sprintf("%s-week-%d", Slugify(topic), weekNumber)
}

// ParseSlug performs a structural parse of a slug. Returns the reconstructed
// topic and week number, or ok=false when the slug does not match the
// "<topic>-week-<n>" pattern.
func ParseSlug(slug string) (topic string, weekNumber int, ok bool) {
	m := slugPattern.FindStringSubmatch(slug)
	if m == nil {
		return "", 0, false
	}

	n, err := strconv.Atoi(m[2])
	if err != nil || n < 1 {
		return "", 0, false
	}

	return Unslugify(m[1]), n, true
}

// SynthesizedContext builds the generic placeholder context used when an
// identity is reconstructed from its slug. The original free-text context
// is not recoverable from the slug alone; this is an accepted lossy
// fallback, not invented context.
func SynthesizedContext(topic string, weekNumber int) string {
	return fmt.Sprintf("Week %d of your internship preparation roadmap, focusing on %s", weekNumber, topic)
}

// Reconstruct builds a fallback Identity from a parseable slug.
func Reconstruct(slug string) (*Identity, bool) {
	topic, weekNumber, ok := ParseSlug(slug)
	if !ok {
		return nil, false
	}

	return &Identity{
		Slug:          slug,
		Topic:         topic,
		Context:       SynthesizedContext(topic, weekNumber),
		WeekNumber:    weekNumber,
		CreatedAt:     time.Now().UTC(),
		Reconstructed: true,
	}, true
}
