package commands

import (
	"context"
	"fmt"

	"trailbook/internal/application"
	"trailbook/internal/ports"
)

// EntitySummary describes one tracked entity
type EntitySummary struct {
	ID          string
	HasHistory  bool
	HasBaseline bool
}

// ListEntitiesCommand lists the entities held by a metadata store
type ListEntitiesCommand struct {
	store ports.MetadataStore
}

// NewListEntitiesCommand creates a new ListEntitiesCommand
func NewListEntitiesCommand(store ports.MetadataStore) *ListEntitiesCommand {
	return &ListEntitiesCommand{store: store}
}

// Execute runs the list command
func (c *ListEntitiesCommand) Execute(ctx context.Context) ([]EntitySummary, error) {
	ids, err := c.store.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}

	out := make([]EntitySummary, 0, len(ids))
	for _, id := range ids {
		_, hasGraph, err := c.store.Get(ctx, id, ports.GraphKey)
		if err != nil {
			return nil, err
		}
		_, hasBaseline, err := c.store.Get(ctx, id, ports.BaselineKey)
		if err != nil {
			return nil, err
		}
		out = append(out, EntitySummary{ID: id, HasHistory: hasGraph, HasBaseline: hasBaseline})
	}
	return out, nil
}

// TreeResult contains the history tree of an entity
type TreeResult struct {
	EntityID  string
	Root      *application.TreeNode
	CurrentID string
	Nodes     int
}

// TreeCommand builds the navigable tree of a history
type TreeCommand struct {
	history ports.History
}

// NewTreeCommand creates a new TreeCommand
func NewTreeCommand(h ports.History) *TreeCommand {
	return &TreeCommand{history: h}
}

// Execute runs the tree command
func (c *TreeCommand) Execute(ctx context.Context) (*TreeResult, error) {
	root := c.history.Tree()
	if root == nil {
		return nil, fmt.Errorf("history of %s: %w", c.history.EntityID(), application.ErrNotFound)
	}
	return &TreeResult{
		EntityID:  c.history.EntityID(),
		Root:      root,
		CurrentID: c.history.Current(),
		Nodes:     len(root.Flatten()),
	}, nil
}
