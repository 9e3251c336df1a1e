package commands

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"trailbook/internal/application"
	"trailbook/internal/ports"
)

// ExtractResult contains the submitted source and its running execution
type ExtractResult struct {
	NodeID    string
	Query     string
	Source    string
	Execution ports.Execution
}

// ExtractCommand submits pandas code selecting the brushed rows of a
// dataframe. The command returns as soon as the code is submitted; callers
// observe completion through the returned Execution.
type ExtractCommand struct {
	history   ports.History
	executor  ports.CodeExecutor
	Dataframe string
	NodeRef   string
	Prelude   bool
}

// NewExtractCommand creates a new ExtractCommand
func NewExtractCommand(h ports.History, executor ports.CodeExecutor, dataframe, nodeRef string, prelude bool) *ExtractCommand {
	return &ExtractCommand{
		history:   h,
		executor:  executor,
		Dataframe: dataframe,
		NodeRef:   nodeRef,
		Prelude:   prelude,
	}
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the dataframe name
func (c *ExtractCommand) Validate() error {
	if err := application.ValidateRequired("dataframe", c.Dataframe); err != nil {
		return err
	}
	if !identifier.MatchString(c.Dataframe) {
		return &application.ValidationError{
			Field:   "dataframe",
			Message: fmt.Sprintf("%q is not a Python identifier", c.Dataframe),
		}
	}
	return nil
}

// Execute runs the extract command
func (c *ExtractCommand) Execute(ctx context.Context) (*ExtractResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	q, err := NewQueryCommand(c.history, c.NodeRef).Execute(ctx)
	if err != nil {
		return nil, err
	}
	if q.Query == "" {
		return nil, fmt.Errorf("node %s has no brush: %w", application.ShortID(q.NodeID), application.ErrNothingToExtract)
	}

	source := ExtractSource(c.Dataframe, q.Query)
	exec, err := c.executor.Execute(ctx, source, ports.ExecOptions{
		WithPrelude: c.Prelude,
		WithPandas:  true,
		WithJSON:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit extraction: %w", err)
	}

	return &ExtractResult{
		NodeID:    q.NodeID,
		Query:     q.Query,
		Source:    source,
		Execution: exec,
	}, nil
}

// ExtractSource is the Python statement printing the rows of dataframe
// matching query as JSON records
func ExtractSource(dataframe, query string) string {
	return fmt.Sprintf("print(%s.query(%s).to_json(orient=\"records\"))", dataframe, strconv.Quote(query))
}
