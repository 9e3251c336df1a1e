package commands

import (
	"context"
	"fmt"

	"trailbook/internal/application"
	"trailbook/internal/ports"
)

// ExportResult contains a serialized history
type ExportResult struct {
	EntityID string
	Export   string
	Nodes    int
}

// ExportCommand serializes a history
type ExportCommand struct {
	history ports.History
}

// NewExportCommand creates a new ExportCommand
func NewExportCommand(h ports.History) *ExportCommand {
	return &ExportCommand{history: h}
}

// Execute runs the export command
func (c *ExportCommand) Execute(ctx context.Context) (*ExportResult, error) {
	export, err := c.history.Export()
	if err != nil {
		return nil, fmt.Errorf("failed to export history: %w", err)
	}
	return &ExportResult{
		EntityID: c.history.EntityID(),
		Export:   export,
		Nodes:    len(c.history.Nodes()),
	}, nil
}

// ImportResult contains the history installed by an import
type ImportResult struct {
	EntityID  string
	RootID    string
	CurrentID string
	Nodes     int
	Message   string
}

// ImportCommand replaces a history with a serialized one
type ImportCommand struct {
	history ports.History
	Export  string
}

// NewImportCommand creates a new ImportCommand
func NewImportCommand(h ports.History, export string) *ImportCommand {
	return &ImportCommand{
		history: h,
		Export:  export,
	}
}

// Validate checks that an export was given
func (c *ImportCommand) Validate() error {
	return application.ValidateRequired("export", c.Export)
}

// Execute runs the import command
func (c *ImportCommand) Execute(ctx context.Context) (*ImportResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.history.Import(ctx, c.Export); err != nil {
		return nil, fmt.Errorf("failed to import history: %w", err)
	}

	nodes := len(c.history.Nodes())
	return &ImportResult{
		EntityID:  c.history.EntityID(),
		RootID:    c.history.Root(),
		CurrentID: c.history.Current(),
		Nodes:     nodes,
		Message:   fmt.Sprintf("Imported %d nodes", nodes),
	}, nil
}
