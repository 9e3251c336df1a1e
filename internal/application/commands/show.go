package commands

import (
	"context"
	"fmt"

	"trailbook/internal/application"
	"trailbook/internal/ports"
)

// ShowResult describes one node and the state recorded there
type ShowResult struct {
	Node        application.HistoryNode
	State       application.State
	Interaction *application.Interaction
	IsCurrent   bool
}

// ShowCommand materializes the state at a node
type ShowCommand struct {
	history ports.History
	NodeRef string
}

// NewShowCommand creates a new ShowCommand. An empty nodeRef shows the
// current node.
func NewShowCommand(h ports.History, nodeRef string) *ShowCommand {
	return &ShowCommand{
		history: h,
		NodeRef: nodeRef,
	}
}

// Execute runs the show command
func (c *ShowCommand) Execute(ctx context.Context) (*ShowResult, error) {
	nodeID, err := resolveOrCurrent(c.history, c.NodeRef)
	if err != nil {
		return nil, err
	}

	node, ok := c.history.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", nodeID, application.ErrNotFound)
	}
	state, err := c.history.StateAt(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize state: %w", err)
	}

	result := &ShowResult{
		Node:      node,
		State:     state,
		IsCurrent: nodeID == c.history.Current(),
	}
	if rec, ok := c.history.Interaction(nodeID); ok {
		result.Interaction = &rec
	}
	return result, nil
}

func resolveOrCurrent(h ports.History, ref string) (string, error) {
	if ref == "" {
		return h.Current(), nil
	}
	return application.ResolveNode(h, ref)
}
