package engine

import (
	"fmt"
	"strings"
)

// ValidationError means the caller sent something fixable and no side
// effects happened.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// SourceUnavailableError tags a connectivity or timeout failure with the
// system that produced it. A comparison never degrades to one-sided data:
// this error fails the whole request.
type SourceUnavailableError struct {
	System string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.System, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// PartialWriteError reports an update where some steps committed and some
// failed. Committed steps are not rolled back; callers retry only the
// failed ones.
type PartialWriteError struct {
	Committed []string
	Failed    []string
	Causes    map[string]error
}

func (e *PartialWriteError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, step := range e.Failed {
		if cause, ok := e.Causes[step]; ok && cause != nil {
			parts = append(parts, fmt.Sprintf("%s (%v)", step, cause))
		} else {
			parts = append(parts, step)
		}
	}
	return fmt.Sprintf("partial write: committed [%s], failed [%s]",
		strings.Join(e.Committed, ", "), strings.Join(parts, ", "))
}

// NotFoundError names the entity and code that could not be resolved.
type NotFoundError struct {
	Entity string
	Code   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Code)
}
