package roadmap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBTOPICS
// Generated subtopics arrive over the wire in two shapes: a bare title
// string, or an object with title and description. They are resolved into
// the tagged Subtopic form once at ingestion; consumers never re-check the
// wire shape.
// ══════════════════════════════════════════════════════════════════════════════

// SubtopicKind tags the variant of a Subtopic.
type SubtopicKind string

const (
	// SubtopicTitle is a bare-title subtopic.
	SubtopicTitle SubtopicKind = "title"

	// SubtopicDetailed carries a title plus a description.
	SubtopicDetailed SubtopicKind = "detailed"
)

// Subtopic is a finer-grained completable learning item within a week.
type Subtopic struct {
	Kind        SubtopicKind `json:"kind"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
}

// NewTitleSubtopic creates a bare-title subtopic.
func NewTitleSubtopic(title string) Subtopic {
	return Subtopic{Kind: SubtopicTitle, Title: strings.TrimSpace(title)}
}

// NewDetailedSubtopic creates a subtopic with a description.
func NewDetailedSubtopic(title, description string) Subtopic {
	return Subtopic{
		Kind:        SubtopicDetailed,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
	}
}

// UnmarshalJSON resolves the heterogeneous wire representation.
func (s *Subtopic) UnmarshalJSON(data []byte) error {
	// Bare string form.
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		*s = NewTitleSubtopic(title)
		return nil
	}

	// Object form. Kind present means the value was written by us.
	var obj struct {
		Kind        SubtopicKind `json:"kind"`
		Title       string       `json:"title"`
		Description string       `json:"description"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("roadmap: unmarshal subtopic: %w", err)
	}
	if obj.Title == "" {
		return fmt.Errorf("roadmap: subtopic object missing title")
	}

	if obj.Description == "" && obj.Kind != SubtopicDetailed {
		*s = NewTitleSubtopic(obj.Title)
		return nil
	}
	*s = NewDetailedSubtopic(obj.Title, obj.Description)
	return nil
}

// ResolveSubtopics decodes a raw JSON array of mixed string/object subtopics.
func ResolveSubtopics(raw json.RawMessage) ([]Subtopic, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var subtopics []Subtopic
	if err := json.Unmarshal(raw, &subtopics); err != nil {
		return nil, fmt.Errorf("roadmap: resolve subtopics: %w", err)
	}
	return subtopics, nil
}
