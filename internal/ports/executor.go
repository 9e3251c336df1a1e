package ports

import "context"

// ExecOptions selects the preludes prepended to executed source
type ExecOptions struct {
	WithPrelude bool // import the host's helper module
	WithPandas  bool // import pandas as pd
	WithJSON    bool // import json
}

// ExecResult is the outcome of one execution
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Execution is a running or finished code execution
type Execution interface {
	// Done is closed when the execution finishes
	Done() <-chan struct{}

	// Wait blocks until the execution finishes or ctx is done
	Wait(ctx context.Context) (ExecResult, error)
}

// CodeExecutor runs source text in a kernel or interpreter
type CodeExecutor interface {
	// Execute starts running source and returns immediately
	Execute(ctx context.Context, source string, opts ExecOptions) (Execution, error)

	// IsAvailable returns true if the interpreter is installed and accessible
	IsAvailable() bool
}
