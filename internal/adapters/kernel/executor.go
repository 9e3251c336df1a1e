// Package kernel runs Python source through an interpreter subprocess
package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"trailbook/internal/ports"
)

// Executor implements ports.CodeExecutor with a Python interpreter
type Executor struct {
	python  string
	prelude string
	logger  *zap.Logger
}

// Ensure Executor implements CodeExecutor
var _ ports.CodeExecutor = (*Executor)(nil)

// Option configures the Executor
type Option func(*Executor)

// WithPython sets the interpreter binary
func WithPython(path string) Option {
	return func(e *Executor) {
		e.python = path
	}
}

// WithPrelude sets the helper module imported when ExecOptions.WithPrelude is set
func WithPrelude(module string) Option {
	return func(e *Executor) {
		e.prelude = module
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates a new Python executor
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		python: "python3",
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute starts the interpreter on source and returns without waiting
func (e *Executor) Execute(ctx context.Context, source string, opts ports.ExecOptions) (ports.Execution, error) {
	program := buildSource(source, opts, e.prelude)

	cmd := exec.CommandContext(ctx, e.python, "-c", program)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", e.python, err)
	}
	e.logger.Debug("execution started", zap.Int("pid", cmd.Process.Pid))

	x := &execution{done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		res := ports.ExecResult{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			ExitCode: cmd.ProcessState.ExitCode(),
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = fmt.Errorf("%s exited with status %d: %s", e.python, res.ExitCode, strings.TrimSpace(res.Stderr))
		}
		if err != nil {
			e.logger.Warn("execution failed", zap.Error(err))
		}
		x.finish(res, err)
	}()
	return x, nil
}

// IsAvailable checks if the interpreter is installed and accessible
func (e *Executor) IsAvailable() bool {
	_, err := exec.LookPath(e.python)
	return err == nil
}

// execution implements ports.Execution
type execution struct {
	done chan struct{}

	mu     sync.Mutex
	result ports.ExecResult
	err    error
}

func (x *execution) finish(res ports.ExecResult, err error) {
	x.mu.Lock()
	x.result = res
	x.err = err
	x.mu.Unlock()
	close(x.done)
}

func (x *execution) Done() <-chan struct{} {
	return x.done
}

func (x *execution) Wait(ctx context.Context) (ports.ExecResult, error) {
	select {
	case <-x.done:
		x.mu.Lock()
		defer x.mu.Unlock()
		return x.result, x.err
	case <-ctx.Done():
		return ports.ExecResult{}, ctx.Err()
	}
}

// buildSource prepends the imports selected by opts
func buildSource(source string, opts ports.ExecOptions, prelude string) string {
	var b strings.Builder
	if opts.WithPrelude && prelude != "" {
		fmt.Fprintf(&b, "from %s import *\n", prelude)
	}
	if opts.WithPandas {
		b.WriteString("import pandas as pd\n")
	}
	if opts.WithJSON {
		b.WriteString("import json\n")
	}
	b.WriteString(source)
	return b.String()
}

var codeBlockRe = regexp.MustCompile("```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")

// ParseRecords extracts a JSON array of records from interpreter output,
// tolerating surrounding text and markdown code fences
func ParseRecords(output string) ([]map[string]any, error) {
	output = strings.TrimSpace(output)

	if matches := codeBlockRe.FindStringSubmatch(output); len(matches) > 1 {
		output = strings.TrimSpace(matches[1])
	}

	start := strings.Index(output, "[")
	end := strings.LastIndex(output, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no valid JSON array found in output")
	}
	jsonStr := output[start : end+1]

	var records []map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &records); err != nil {
		return nil, fmt.Errorf("failed to parse records JSON: %w", err)
	}
	return records, nil
}
