package commands

import (
	"context"
	"errors"
	"fmt"

	"trailbook/internal/application"
	"trailbook/internal/history"
	"trailbook/internal/ports"
)

// NavigateResult contains the node the history moved to
type NavigateResult struct {
	EntityID string
	NodeID   string
	Label    string
	Message  string
}

// NavigateCommand moves the current node of a history
type NavigateCommand struct {
	history ports.History
	NodeRef string
}

// NewNavigateCommand creates a new NavigateCommand. nodeRef is a node id,
// a unique id prefix, "root" or "current".
func NewNavigateCommand(h ports.History, nodeRef string) *NavigateCommand {
	return &NavigateCommand{
		history: h,
		NodeRef: nodeRef,
	}
}

// Validate checks that a node reference was given
func (c *NavigateCommand) Validate() error {
	return application.ValidateRequired("nodeID", c.NodeRef)
}

// Execute runs the navigate command
func (c *NavigateCommand) Execute(ctx context.Context) (*NavigateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	nodeID, err := application.ResolveNode(c.history, c.NodeRef)
	if err != nil {
		return nil, err
	}
	if err := c.history.To(ctx, nodeID); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	return moved(c.history, "Moved to"), nil
}

// UndoCommand moves to the parent of the current node
type UndoCommand struct {
	history ports.History
}

// NewUndoCommand creates a new UndoCommand
func NewUndoCommand(h ports.History) *UndoCommand {
	return &UndoCommand{history: h}
}

// Execute runs the undo command
func (c *UndoCommand) Execute(ctx context.Context) (*NavigateResult, error) {
	if err := c.history.Undo(ctx); err != nil {
		if errors.Is(err, history.ErrAtRoot) {
			return nil, &application.NavigationError{
				EntityID: c.history.EntityID(),
				Reason:   "already at the root",
				Err:      err,
			}
		}
		return nil, fmt.Errorf("failed to undo: %w", err)
	}
	return moved(c.history, "Undid to"), nil
}

// RedoCommand moves to the most recent child of the current node
type RedoCommand struct {
	history ports.History
}

// NewRedoCommand creates a new RedoCommand
func NewRedoCommand(h ports.History) *RedoCommand {
	return &RedoCommand{history: h}
}

// Execute runs the redo command
func (c *RedoCommand) Execute(ctx context.Context) (*NavigateResult, error) {
	if err := c.history.Redo(ctx); err != nil {
		if errors.Is(err, history.ErrAtLatest) {
			return nil, &application.NavigationError{
				EntityID: c.history.EntityID(),
				Reason:   "already at the latest node",
				Err:      err,
			}
		}
		return nil, fmt.Errorf("failed to redo: %w", err)
	}
	return moved(c.history, "Redid to"), nil
}

func moved(h ports.History, verb string) *NavigateResult {
	id := h.Current()
	n, _ := h.Node(id)
	return &NavigateResult{
		EntityID: h.EntityID(),
		NodeID:   id,
		Label:    n.Label,
		Message:  fmt.Sprintf("%s %s %s", verb, application.ShortID(id), n.Label),
	}
}
