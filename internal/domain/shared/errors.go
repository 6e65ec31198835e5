// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrLocked          = errors.New("resource is locked")
	ErrExpired         = errors.New("expired")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "roadmap", "lesson", "generation"
	Op      string // Operation that failed, e.g., "Toggle", "Persist"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Roadmap domain errors
var (
	ErrRoadmapNotFound   = NewDomainError("roadmap", "Find", ErrNotFound, "roadmap not found")
	ErrWeekNotFound      = NewDomainError("roadmap", "FindWeek", ErrNotFound, "week not found in roadmap")
	ErrWeekLocked        = NewDomainError("roadmap", "Navigate", ErrLocked, "week is locked")
	ErrInvalidWeekNumber = NewDomainError("roadmap", "Validate", ErrValueOutOfRange, "invalid week number")
	ErrInvalidItemID     = NewDomainError("roadmap", "Validate", ErrInvalidFormat, "invalid item id")
	ErrMixedItemFamilies = NewDomainError("roadmap", "Toggle", ErrInvalidState, "completed items mix task and subtopic ids")
)

// Lesson domain errors
var (
	ErrLessonNotFound = NewDomainError("lesson", "Resolve", ErrNotFound, "lesson identity not found")
	ErrInvalidSlug    = NewDomainError("lesson", "Parse", ErrInvalidFormat, "slug does not match lesson pattern")
)

// Sync engine errors
var (
	ErrNoRoadmapLoaded = NewDomainError("sync", "Toggle", ErrInvalidState, "no roadmap loaded in session")
	ErrPersistFailed   = NewDomainError("sync", "Persist", ErrExternalService, "failed to persist progress")
	ErrPipelineBlocked = NewDomainError("sync", "Generate", ErrValidation, "pipeline eligibility requirements not met")
)

// Generation errors
var (
	ErrGenerationFailed   = NewDomainError("generation", "Generate", ErrExternalService, "content generation failed")
	ErrDegradedContent    = NewDomainError("generation", "Validate", ErrInvalidEntity, "generated content is error-shaped")
	ErrGenerationTimeout  = NewDomainError("generation", "Generate", ErrTimeout, "content generation timed out")
	ErrGenerationLimited  = NewDomainError("generation", "Generate", ErrRateLimited, "content generation rate limited")
	ErrGeneratorUnkeyed   = NewDomainError("generation", "Configure", ErrInvalidState, "no API key configured")
	ErrInvalidModelOutput = NewDomainError("generation", "Parse", ErrInvalidFormat, "model returned unparseable output")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
