package commands

import (
	"context"
	"fmt"

	"trailbook/internal/application"
	"trailbook/internal/ports"
)

// MessageResult contains the node recorded for a message
type MessageResult struct {
	NodeID string
}

// MessageCommand records a new message in the history state
type MessageCommand struct {
	history ports.History
	Message string
}

// NewMessageCommand creates a new MessageCommand
func NewMessageCommand(h ports.History, msg string) *MessageCommand {
	return &MessageCommand{
		history: h,
		Message: msg,
	}
}

// Validate checks that a message was given
func (c *MessageCommand) Validate() error {
	return application.ValidateRequired("message", c.Message)
}

// Execute runs the message command
func (c *MessageCommand) Execute(ctx context.Context) (*MessageResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	id, err := c.history.SetMessage(ctx, c.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to record message: %w", err)
	}
	return &MessageResult{NodeID: id}, nil
}
