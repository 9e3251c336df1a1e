package ports

import "os/exec"

// EditorOpener defines the interface for opening files in an external editor
type EditorOpener interface {
	// OpenFile opens the specified file in the user's preferred editor
	OpenFile(path string) error

	// Command returns an exec.Cmd for opening a file in the editor.
	// This is useful for integrating with bubbletea's ExecProcess.
	Command(path string) (*exec.Cmd, error)

	// CommandForDocument writes doc to a temporary file named after name and
	// returns the command that opens it together with the file path
	CommandForDocument(name string, doc []byte) (*exec.Cmd, string, error)
}
