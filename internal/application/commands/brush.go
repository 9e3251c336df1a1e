package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"trailbook/internal/application"
	"trailbook/internal/capture"
	"trailbook/internal/domain"
	"trailbook/internal/ports"
)

// BrushResult contains the node recorded for a brush
type BrushResult struct {
	NodeID  string
	Query   string
	Message string
}

// BrushCommand records an interval selection without a live view. The
// brushed specification is derived from the spec active at the current node.
type BrushCommand struct {
	history   ports.History
	Selection string
	Ranges    map[string]domain.Range
}

// NewBrushCommand creates a new BrushCommand
func NewBrushCommand(h ports.History, selection string, ranges map[string]domain.Range) *BrushCommand {
	return &BrushCommand{
		history:   h,
		Selection: selection,
		Ranges:    ranges,
	}
}

// Validate checks the selection name and ranges
func (c *BrushCommand) Validate() error {
	if err := application.ValidateRequired("selection", c.Selection); err != nil {
		return err
	}
	if len(c.Ranges) == 0 {
		return &application.ValidationError{
			Field:   "ranges",
			Message: "at least one field range is required",
		}
	}
	for field, r := range c.Ranges {
		if r.Lo() > r.Hi() {
			return &application.ValidationError{
				Field:   "ranges",
				Message: fmt.Sprintf("range of %s is inverted", field),
			}
		}
	}
	return nil
}

// Execute runs the brush command
func (c *BrushCommand) Execute(ctx context.Context) (*BrushResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	active, err := ActiveSpec(ctx, c.history)
	if err != nil {
		return nil, err
	}

	var sel domain.Selection
	found := false
	for _, s := range domain.FindIntervalSelections(active) {
		if s.Name == c.Selection {
			sel, found = s, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("interval selection %s: %w", c.Selection, application.ErrNotFound)
	}

	spec, err := capture.BuildSpec(active, sel, c.Ranges)
	if err != nil {
		return nil, fmt.Errorf("failed to build brushed spec: %w", err)
	}
	rec := domain.Interaction{
		ID:     uuid.NewString(),
		Kind:   domain.KindSelectionInterval,
		Name:   sel.Name,
		Path:   sel.Pointer,
		Params: &domain.IntervalParams{Selection: c.Ranges},
		Spec:   spec,
	}
	nodeID, err := c.history.AddInteraction(ctx, rec, capture.BrushLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to record brush: %w", err)
	}

	query := domain.QueryString(c.Ranges)
	return &BrushResult{
		NodeID:  nodeID,
		Query:   query,
		Message: fmt.Sprintf("Brushed %s: %s", sel.Name, query),
	}, nil
}

// ActiveSpec returns the specification shown at the current node
func ActiveSpec(ctx context.Context, h ports.History) (domain.Spec, error) {
	return SpecAt(ctx, h, h.Current())
}

// SpecAt returns the specification shown at nodeID: the latest recorded
// specification on its path, or the baseline when none was recorded
func SpecAt(ctx context.Context, h ports.History, nodeID string) (domain.Spec, error) {
	state, err := h.StateAt(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize state: %w", err)
	}
	if spec, ok := state.LastSpec(); ok {
		return spec, nil
	}
	baseline, ok, err := h.Baseline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("baseline of %s: %w", h.EntityID(), application.ErrNotFound)
	}
	return baseline, nil
}
