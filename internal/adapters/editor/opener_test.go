package editor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCommandSplitsEditorArgs(t *testing.T) {
	o := NewOpener(WithEditor("code --wait"))

	cmd, err := o.Command("/tmp/spec.json")
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	want := []string{"code", "--wait", "/tmp/spec.json"}
	if strings.Join(cmd.Args, " ") != strings.Join(want, " ") {
		t.Errorf("Args = %v, want %v", cmd.Args, want)
	}
}

func TestCommandUsesEnv(t *testing.T) {
	t.Setenv("EDITOR", "myeditor")
	t.Setenv("VISUAL", "other")

	cmd, err := NewOpener().Command("file")
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if cmd.Args[0] != "myeditor" {
		t.Errorf("expected $EDITOR to win, got %s", cmd.Args[0])
	}
}

func TestCommandForDocument(t *testing.T) {
	dir := t.TempDir()
	o := NewOpener(WithEditor("cat"), WithTempDir(dir))

	cmd, path, err := o.CommandForDocument("node 1/spec.json", []byte(`{"mark":"point"}`))
	if err != nil {
		t.Fatalf("CommandForDocument failed: %v", err)
	}
	defer os.Remove(path)

	if filepath.Dir(path) != dir {
		t.Errorf("document written to %s, want %s", path, dir)
	}
	if filepath.Ext(path) != ".json" {
		t.Errorf("expected .json extension, got %s", path)
	}
	if strings.ContainsAny(filepath.Base(path), " /") {
		t.Errorf("unsafe characters kept in %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != `{"mark":"point"}` {
		t.Errorf("unexpected content %s", data)
	}
	if cmd.Args[len(cmd.Args)-1] != path {
		t.Errorf("command does not open the document: %v", cmd.Args)
	}
}
