package core

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	// ErrValidation indicates an empty or duplicate name, or an out-of-range value.
	ErrValidation = errors.New("validation failed")

	// ErrCycle indicates a reparent that would make a node its own ancestor.
	ErrCycle = errors.New("move would create a cycle")

	// ErrNotFound indicates an id that is no longer present.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports invalid input to a structural edit.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CycleError reports an illegal reparent.
type CycleError struct {
	ID          string
	NewParentID string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cannot move %s under %s: %v", e.ID, e.NewParentID, ErrCycle)
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// NotFoundError reports a missing tag, item or identity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
