package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"trailbook/internal/application"
	"trailbook/internal/domain"
)

func TestParseRangeArgs(t *testing.T) {
	ranges, err := parseRangeArgs([]string{"x=0:10", "y=-2.5:2.5"})
	if err != nil {
		t.Fatalf("parseRangeArgs failed: %v", err)
	}
	if ranges["x"] != (domain.Range{0, 10}) {
		t.Errorf("x = %v", ranges["x"])
	}
	if ranges["y"] != (domain.Range{-2.5, 2.5}) {
		t.Errorf("y = %v", ranges["y"])
	}

	for _, bad := range []string{"x", "=0:1", "x=0", "x=a:1", "x=0:b"} {
		if _, err := parseRangeArgs([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestPrintTree(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	root := &application.TreeNode{ID: "0123456789abcdef", Label: "Root", CreatedAt: at}
	child := &application.TreeNode{ID: "fedcba9876543210", Label: "Brush selection", CreatedAt: at, IsCurrent: true, Parent: root}
	root.Children = []*application.TreeNode{child}

	var buf bytes.Buffer
	printTree(&buf, root, "", false)
	want := "  01234567 Root (2024-03-01 12:00:00)\n" +
		"  * fedcba98 Brush selection (2024-03-01 12:00:00)\n"
	if buf.String() != want {
		t.Errorf("printTree =\n%s\nwant\n%s", buf.String(), want)
	}

	buf.Reset()
	printTree(&buf, root, "", true)
	if !strings.Contains(buf.String(), "fedcba9876543210") {
		t.Errorf("full IDs not printed: %s", buf.String())
	}
}

func TestWriteDocument(t *testing.T) {
	doc := map[string]any{"id": "n1", "state": map[string]any{"msg": "hi"}}

	var buf bytes.Buffer
	if err := writeDocument(&buf, doc, "yaml"); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "msg: hi") {
		t.Errorf("unexpected yaml:\n%s", buf.String())
	}

	buf.Reset()
	if err := writeDocument(&buf, doc, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(buf.String(), `"msg": "hi"`) {
		t.Errorf("unexpected json:\n%s", buf.String())
	}

	if err := writeDocument(&buf, doc, "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
