package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidateInteraction(t *testing.T) {
	brush := &IntervalParams{Selection: map[string]Range{"x": {0, 1}}}
	tests := []struct {
		name    string
		rec     Interaction
		wantErr bool
	}{
		{name: "test record", rec: Interaction{ID: uuid.NewString(), Kind: KindTest, Name: "hi"}},
		{name: "brush", rec: Interaction{ID: uuid.NewString(), Kind: KindSelectionInterval, Params: brush}},
		{name: "missing id", rec: Interaction{Kind: KindTest}, wantErr: true},
		{name: "id not a uuid", rec: Interaction{ID: "node-1", Kind: KindTest}, wantErr: true},
		{name: "missing kind", rec: Interaction{ID: uuid.NewString()}, wantErr: true},
		{name: "brush without params", rec: Interaction{ID: uuid.NewString(), Kind: KindSelectionInterval}, wantErr: true},
		{
			name:    "brush with empty selection",
			rec:     Interaction{ID: uuid.NewString(), Kind: KindSelectionInterval, Params: &IntervalParams{Selection: map[string]Range{}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInteraction(tt.rec)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInteraction() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKindLabel(t *testing.T) {
	if KindSelectionInterval.Label() != "Brush selection" {
		t.Errorf("Label = %s", KindSelectionInterval.Label())
	}
	if Kind("custom").Label() != "custom" {
		t.Error("unknown kinds should label as themselves")
	}
	if !KindFilter.IsValid() || Kind("custom").IsValid() {
		t.Error("IsValid mismatch")
	}
}

func TestInteractionCloneIsDeep(t *testing.T) {
	rec := Interaction{
		ID:     uuid.NewString(),
		Kind:   KindSelectionInterval,
		Params: &IntervalParams{Selection: map[string]Range{"x": {0, 1}}},
		Spec:   Spec{"mark": "point"},
	}
	c := rec.Clone()
	c.Params.Selection["y"] = Range{2, 3}
	c.Spec["mark"] = "bar"

	if _, ok := rec.Params.Selection["y"]; ok {
		t.Error("params shared with clone")
	}
	if rec.Spec["mark"] != "point" {
		t.Error("spec shared with clone")
	}
}

func TestStateHelpers(t *testing.T) {
	s := DefaultState()
	if s.Msg != DefaultMessage || len(s.Interactions) != 0 {
		t.Errorf("unexpected default state %+v", s)
	}
	if _, ok := s.LastSpec(); ok {
		t.Error("default state has no spec")
	}

	s.Interactions = []Interaction{
		{Kind: KindSelectionInterval, Spec: Spec{"v": 1.0}},
		{Kind: KindFilter, Spec: Spec{"v": 2.0}},
		{Kind: KindTest},
	}
	spec, ok := s.LastSpec()
	if !ok || spec["v"] != 2.0 {
		t.Errorf("LastSpec = %v, %v", spec, ok)
	}
	if last, _ := s.Last(); last.Kind != KindTest {
		t.Errorf("Last = %v", last.Kind)
	}
	if n := len(s.OfKind(KindSelectionInterval)); n != 1 {
		t.Errorf("OfKind = %d, want 1", n)
	}
}
