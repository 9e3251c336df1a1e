package commands

import (
	"context"
	"fmt"

	"trailbook/internal/domain"
	"trailbook/internal/ports"
)

// QueryResult contains the pandas query equivalent to a node's brushes
type QueryResult struct {
	NodeID  string
	Query   string
	Brushes int
}

// QueryCommand renders the brushes applied up to a node as one pandas
// query expression
type QueryCommand struct {
	history ports.History
	NodeRef string
}

// NewQueryCommand creates a new QueryCommand. An empty nodeRef uses the
// current node.
func NewQueryCommand(h ports.History, nodeRef string) *QueryCommand {
	return &QueryCommand{
		history: h,
		NodeRef: nodeRef,
	}
}

// Execute runs the query command
func (c *QueryCommand) Execute(ctx context.Context) (*QueryResult, error) {
	nodeID, err := resolveOrCurrent(c.history, c.NodeRef)
	if err != nil {
		return nil, err
	}
	state, err := c.history.StateAt(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize state: %w", err)
	}

	brushes := state.OfKind(domain.KindSelectionInterval)
	return &QueryResult{
		NodeID:  nodeID,
		Query:   domain.CombinedQueryString(brushes),
		Brushes: len(brushes),
	}, nil
}
