package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors; use with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrDanglingReference = errors.New("dangling reference")
	ErrConflict          = errors.New("conflict")
	ErrCommit            = errors.New("commit failed")
)

type (
	// NotFoundError reports a missing entity by kind and ID.
	NotFoundError struct {
		Kind EntityKind
		ID   string
	}

	// ValidationError reports rejected input. Nothing was mutated.
	ValidationError struct {
		Field   string
		Message string
	}

	// DanglingReferenceError reports an entity whose owner no longer exists.
	DanglingReferenceError struct {
		Kind    EntityKind
		ID      string
		OwnerID string
	}

	// CommitError wraps a gateway failure. The in-memory mutation that
	// preceded it is still applied.
	CommitError struct {
		Op  string
		Err error
	}
)

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("%s %s references missing owner %q", e.Kind, e.ID, e.OwnerID)
}

func (e *DanglingReferenceError) Is(target error) bool { return target == ErrDanglingReference }

func (e *CommitError) Error() string {
	return fmt.Sprintf("%s: commit: %v", e.Op, e.Err)
}

func (e *CommitError) Is(target error) bool { return target == ErrCommit }

func (e *CommitError) Unwrap() error { return e.Err }

// NewValidationError is shorthand for a field-level ValidationError.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: err.Error()}
}
