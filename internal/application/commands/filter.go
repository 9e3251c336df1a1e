package commands

import (
	"context"
	"fmt"
)

// Filterer bakes active brushes into a filter transform; *specsync.Binding
// implements it
type Filterer interface {
	Filter(ctx context.Context) (nodeID string, changed bool, err error)
}

// FilterResult contains the node recorded for a filter, if any
type FilterResult struct {
	NodeID  string
	Changed bool
	Message string
}

// FilterCommand turns the current brushes into a filter transform
type FilterCommand struct {
	filterer Filterer
}

// NewFilterCommand creates a new FilterCommand
func NewFilterCommand(f Filterer) *FilterCommand {
	return &FilterCommand{filterer: f}
}

// Execute runs the filter command
func (c *FilterCommand) Execute(ctx context.Context) (*FilterResult, error) {
	nodeID, changed, err := c.filterer.Filter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to filter: %w", err)
	}
	if !changed {
		return &FilterResult{Message: "Nothing to filter"}, nil
	}
	return &FilterResult{
		NodeID:  nodeID,
		Changed: true,
		Message: "Filter applied",
	}, nil
}
