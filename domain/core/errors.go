package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrCandidateNotFound = fmt.Errorf("%w: candidate", ErrNotFound)

	// Validation errors
	ErrInvalidCriteria  = errors.New("invalid matching criteria")
	ErrInvalidCandidate = errors.New("candidate missing required covariates")
	ErrInvalidConfig    = errors.New("invalid matching configuration")

	// Statistical errors
	ErrDegenerateInput  = errors.New("degenerate input for statistical test")
	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// NewValidationError builds a field-scoped validation error.
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// IsNotFoundError reports whether err is a not-found domain error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError reports whether err stems from malformed caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidCriteria) ||
		errors.Is(err, ErrInvalidCandidate) ||
		errors.Is(err, ErrInvalidConfig)
}
