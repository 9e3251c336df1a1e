package commands

import (
	"context"
	"fmt"

	"trailbook/internal/application"
	"trailbook/internal/domain"
	"trailbook/internal/ports"
)

// InitResult contains the baseline recorded for an entity
type InitResult struct {
	EntityID   string
	Selections []domain.Selection
	Message    string
}

// InitCommand records the pristine specification of an entity. An existing
// baseline is kept unless Force is set.
type InitCommand struct {
	history ports.History
	Spec    domain.Spec
	Force   bool
}

// NewInitCommand creates a new InitCommand
func NewInitCommand(h ports.History, spec domain.Spec, force bool) *InitCommand {
	return &InitCommand{
		history: h,
		Spec:    spec,
		Force:   force,
	}
}

// Validate checks that a specification was given
func (c *InitCommand) Validate() error {
	if len(c.Spec) == 0 {
		return &application.ValidationError{
			Field:   "spec",
			Message: "specification is required",
		}
	}
	return nil
}

// Execute runs the init command
func (c *InitCommand) Execute(ctx context.Context) (*InitResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	_, exists, err := c.history.Baseline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}
	if exists && !c.Force {
		return nil, fmt.Errorf("%w: %s already has a baseline", application.ErrInvalidOperation, c.history.EntityID())
	}
	if err := c.history.SaveBaseline(ctx, c.Spec); err != nil {
		return nil, fmt.Errorf("failed to save baseline: %w", err)
	}

	sels := domain.FindIntervalSelections(c.Spec)
	return &InitResult{
		EntityID:   c.history.EntityID(),
		Selections: sels,
		Message:    fmt.Sprintf("Initialized %s with %d interval selections", c.history.EntityID(), len(sels)),
	}, nil
}
