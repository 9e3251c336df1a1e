package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidID        = errors.New("invalid ID")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrNothingToExtract = errors.New("nothing to extract")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NavigationError represents a move of the current node that cannot happen
type NavigationError struct {
	EntityID string
	Reason   string
	Err      error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("cannot navigate %s: %s", e.EntityID, e.Reason)
}

func (e *NavigationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// AmbiguousIDError is returned when a node id prefix matches several nodes
type AmbiguousIDError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousIDError) Error() string {
	return fmt.Sprintf("node ID %q is ambiguous (%d matches)", e.Prefix, len(e.Matches))
}

func (e *AmbiguousIDError) Is(target error) bool {
	return target == ErrInvalidID
}
