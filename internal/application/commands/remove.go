package commands

import (
	"context"
	"fmt"
	"slices"

	"trailbook/internal/application"
	"trailbook/internal/history"
	"trailbook/internal/ports"
)

// RemoveEntityResult contains the result of removing an entity
type RemoveEntityResult struct {
	EntityID string
	Message  string
}

// RemoveEntityCommand deletes an entity's history and baseline. An open
// manager for the entity is disposed first.
type RemoveEntityCommand struct {
	store    ports.MetadataStore
	index    *history.Index
	EntityID string
}

// NewRemoveEntityCommand creates a new RemoveEntityCommand. index may be nil.
func NewRemoveEntityCommand(store ports.MetadataStore, index *history.Index, entityID string) *RemoveEntityCommand {
	return &RemoveEntityCommand{
		store:    store,
		index:    index,
		EntityID: entityID,
	}
}

// Validate checks that an entity id was given
func (c *RemoveEntityCommand) Validate() error {
	return application.ValidateRequired("entityID", c.EntityID)
}

// Execute runs the remove command
func (c *RemoveEntityCommand) Execute(ctx context.Context) (*RemoveEntityResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	ids, err := c.store.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	if !slices.Contains(ids, c.EntityID) {
		return nil, fmt.Errorf("entity %s: %w", c.EntityID, application.ErrNotFound)
	}

	if c.index != nil {
		if m, err := c.index.Lookup(c.EntityID); err == nil {
			m.Dispose()
		}
	}
	if err := c.store.DeleteEntity(ctx, c.EntityID); err != nil {
		return nil, fmt.Errorf("failed to delete entity: %w", err)
	}

	return &RemoveEntityResult{
		EntityID: c.EntityID,
		Message:  fmt.Sprintf("Removed %s", c.EntityID),
	}, nil
}
