package editor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"trailbook/internal/ports"
)

// Opener implements ports.EditorOpener
type Opener struct {
	editor  string
	tempDir string
}

// Ensure Opener implements EditorOpener
var _ ports.EditorOpener = (*Opener)(nil)

// Option configures the Opener
type Option func(*Opener)

// WithEditor overrides the editor lookup
func WithEditor(editor string) Option {
	return func(o *Opener) {
		o.editor = editor
	}
}

// WithTempDir sets where documents are written before opening
func WithTempDir(dir string) Option {
	return func(o *Opener) {
		o.tempDir = dir
	}
}

// NewOpener creates a new editor opener
func NewOpener(opts ...Option) *Opener {
	o := &Opener{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OpenFile opens a file in the user's preferred editor
func (o *Opener) OpenFile(path string) error {
	cmd, err := o.Command(path)
	if err != nil {
		return err
	}
	return cmd.Run()
}

// Command returns an exec.Cmd for opening a file in the editor.
// An editor setting with arguments ("code --wait") is split on spaces.
func (o *Opener) Command(path string) (*exec.Cmd, error) {
	fields := strings.Fields(o.findEditor())
	if len(fields) == 0 {
		return nil, fmt.Errorf("no editor found: set $EDITOR environment variable")
	}

	args := append(fields[1:], path)
	cmd := exec.Command(fields[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CommandForDocument writes doc to a temporary file and returns the command
// opening it. The caller removes the file once the editor exits.
func (o *Opener) CommandForDocument(name string, doc []byte) (*exec.Cmd, string, error) {
	pattern := unsafeName.ReplaceAllString(name, "-")
	ext := filepath.Ext(pattern)
	pattern = strings.TrimSuffix(pattern, ext) + "-*" + ext

	f, err := os.CreateTemp(o.tempDir, pattern)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create document: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(doc); err != nil {
		f.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("failed to write document: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, "", fmt.Errorf("failed to write document: %w", err)
	}

	cmd, err := o.Command(path)
	if err != nil {
		os.Remove(path)
		return nil, "", err
	}
	return cmd, path, nil
}

// findEditor returns the editor to use
func (o *Opener) findEditor() string {
	if o.editor != "" {
		return o.editor
	}

	// Check $EDITOR first
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}

	// Check $VISUAL
	if visual := os.Getenv("VISUAL"); visual != "" {
		return visual
	}

	// Try common editors
	editors := []string{"nvim", "vim", "vi", "nano", "code"}
	for _, editor := range editors {
		if path, err := exec.LookPath(editor); err == nil {
			return path
		}
	}

	return ""
}
