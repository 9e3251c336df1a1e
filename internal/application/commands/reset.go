package commands

import (
	"context"
	"fmt"

	"trailbook/internal/ports"
)

// ResetResult contains the state of a history after a reset
type ResetResult struct {
	EntityID string
	RootID   string
	Nodes    int
	Message  string
}

// ResetCommand starts a history over. With Reload set the persisted graph
// is re-read instead of being discarded.
type ResetCommand struct {
	history ports.History
	Reload  bool
}

// NewResetCommand creates a new ResetCommand
func NewResetCommand(h ports.History, reload bool) *ResetCommand {
	return &ResetCommand{
		history: h,
		Reload:  reload,
	}
}

// Execute runs the reset command
func (c *ResetCommand) Execute(ctx context.Context) (*ResetResult, error) {
	if c.Reload {
		if err := c.history.Reload(ctx); err != nil {
			return nil, fmt.Errorf("failed to reload history: %w", err)
		}
	} else if err := c.history.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset history: %w", err)
	}

	result := &ResetResult{
		EntityID: c.history.EntityID(),
		RootID:   c.history.Root(),
		Nodes:    len(c.history.Nodes()),
	}
	if c.Reload {
		result.Message = fmt.Sprintf("Reloaded %d nodes", result.Nodes)
	} else {
		result.Message = "History reset"
	}
	return result, nil
}
