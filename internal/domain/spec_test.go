package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func chartSpec() Spec {
	return Spec{
		"mark": "point",
		"selection": map[string]any{
			"brush": map[string]any{"type": "interval"},
		},
		"encoding": map[string]any{
			"x": map[string]any{"field": "horsepower", "type": "quantitative"},
		},
	}
}

func TestParseSpec(t *testing.T) {
	s, err := ParseSpec([]byte(`{"mark":"bar","width":200}`))
	if err != nil {
		t.Fatalf("ParseSpec failed: %v", err)
	}
	if s["mark"] != "bar" || s["width"] != float64(200) {
		t.Errorf("unexpected spec %v", s)
	}

	if _, err := ParseSpec([]byte(`[1, 2]`)); err == nil {
		t.Error("expected error for a JSON array")
	}

	s, err = ParseSpec([]byte(`null`))
	if err != nil || s != nil {
		t.Errorf("null should decode to a nil spec, got %v, %v", s, err)
	}
}

func TestSpecJSONOfNil(t *testing.T) {
	var s Spec
	data, err := s.JSON()
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("expected {}, got %s", data)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := chartSpec()
	c := s.Clone()
	c["selection"].(map[string]any)["brush"].(map[string]any)["type"] = "point"

	if v, _ := s.Lookup("/selection/brush/type"); v != "interval" {
		t.Errorf("original modified through clone: %v", v)
	}
	if Spec(nil).Clone() != nil {
		t.Error("clone of nil should be nil")
	}
}

func TestLookup(t *testing.T) {
	s := chartSpec()
	tests := []struct {
		pointer string
		want    any
		ok      bool
	}{
		{pointer: "/mark", want: "point", ok: true},
		{pointer: "/encoding/x/field", want: "horsepower", ok: true},
		{pointer: "/selection/brush/init", ok: false},
		{pointer: "mark", ok: false},
	}
	for _, tt := range tests {
		got, ok := s.Lookup(tt.pointer)
		if ok != tt.ok {
			t.Errorf("Lookup(%q) ok = %v, want %v", tt.pointer, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("Lookup(%q) = %v, want %v", tt.pointer, got, tt.want)
		}
	}
}

func TestApplyPatchLeavesInputUntouched(t *testing.T) {
	s := chartSpec()
	out, err := ApplyPatch(s, []Operation{
		{Op: OpAdd, Path: "/selection/brush/init", Value: map[string]any{"horsepower": []any{50.0, 120.0}}},
		{Op: OpReplace, Path: "/mark", Value: "circle"},
	})
	if err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}

	if out["mark"] != "circle" {
		t.Errorf("mark = %v", out["mark"])
	}
	if _, ok := out.Lookup("/selection/brush/init/horsepower"); !ok {
		t.Error("init not added")
	}
	if diff := cmp.Diff(chartSpec(), s); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}

func TestApplyPatchRejectsBadPath(t *testing.T) {
	_, err := ApplyPatch(chartSpec(), []Operation{{Op: OpRemove, Path: "/missing"}})
	if err == nil {
		t.Error("expected error removing a missing path")
	}
}

func TestDiffRoundTrip(t *testing.T) {
	from := chartSpec()
	to := chartSpec()
	to["mark"] = "circle"
	to["selection"].(map[string]any)["brush"].(map[string]any)["init"] = map[string]any{
		"horsepower": []any{50.0, 120.0},
	}
	delete(to, "encoding")

	ops, err := Diff(from, to)
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if len(ops) == 0 {
		t.Fatal("expected operations")
	}
	got, err := ApplyPatch(from, ops)
	if err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}
	if diff := cmp.Diff(to, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEqual(t *testing.T) {
	if !Equal(chartSpec(), chartSpec()) {
		t.Error("identical specs should be equal")
	}
	if !Equal(nil, Spec{}) {
		t.Error("nil and empty specs should be equal")
	}
	other := chartSpec()
	other["mark"] = "bar"
	if Equal(chartSpec(), other) {
		t.Error("different specs reported equal")
	}
}

func TestJoinPointer(t *testing.T) {
	if got := JoinPointer("/selection", "a/b", "c~d"); got != "/selection/a~1b/c~0d" {
		t.Errorf("JoinPointer = %s", got)
	}
	if got := JoinPointer(""); got != "" {
		t.Errorf("JoinPointer with no tokens = %q", got)
	}
}

func TestOperationKeepsNullValue(t *testing.T) {
	data, err := Operation{Op: OpReplace, Path: "/x", Value: nil}.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(data) != `{"op":"replace","path":"/x","value":null}` {
		t.Errorf("unexpected encoding %s", data)
	}

	data, _ = Operation{Op: OpRemove, Path: "/x"}.MarshalJSON()
	if string(data) != `{"op":"remove","path":"/x"}` {
		t.Errorf("unexpected encoding %s", data)
	}
}
