package domain

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-openapi/jsonpointer"
	"github.com/mitchellh/copystructure"
	"github.com/wI2L/jsondiff"
)

// Spec is a visualization specification document
type Spec map[string]any

// ParseSpec decodes a JSON object into a Spec
func ParseSpec(data []byte) (Spec, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse spec: %w", err)
	}
	return s, nil
}

// JSON encodes the spec; a nil spec encodes as an empty object
func (s Spec) JSON() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(s))
}

// Clone returns a deep copy of the spec
func (s Spec) Clone() Spec {
	if s == nil {
		return nil
	}
	return Spec(copystructure.Must(copystructure.Copy(map[string]any(s))).(map[string]any))
}

// Lookup resolves a JSON pointer against the spec
func (s Spec) Lookup(pointer string) (any, bool) {
	p, err := jsonpointer.New(pointer)
	if err != nil {
		return nil, false
	}
	v, _, err := p.Get(map[string]any(s))
	if err != nil {
		return nil, false
	}
	return v, true
}

// Operation is a single RFC 6902 patch operation
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Patch operation names
const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
)

// MarshalJSON keeps explicit null values for operations that carry one
func (o Operation) MarshalJSON() ([]byte, error) {
	m := map[string]any{"op": o.Op, "path": o.Path}
	if o.From != "" {
		m["from"] = o.From
	}
	switch o.Op {
	case "add", "replace", "test":
		m["value"] = o.Value
	}
	return json.Marshal(m)
}

// ApplyPatch returns a new spec with ops applied; s is left untouched.
// Missing parents of an added path are created.
func ApplyPatch(s Spec, ops []Operation) (Spec, error) {
	if len(ops) == 0 {
		return s.Clone(), nil
	}
	doc, err := s.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode spec: %w", err)
	}
	raw, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	opts := jsonpatch.NewApplyOptions()
	opts.EnsurePathExistsOnAdd = true
	out, err := patch.ApplyWithOptions(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}
	return ParseSpec(out)
}

// Diff computes the structural patch turning from into to
func Diff(from, to Spec) ([]Operation, error) {
	if from == nil {
		from = Spec{}
	}
	if to == nil {
		to = Spec{}
	}
	patch, err := jsondiff.Compare(map[string]any(from), map[string]any(to))
	if err != nil {
		return nil, fmt.Errorf("failed to diff specs: %w", err)
	}
	if len(patch) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode diff: %w", err)
	}
	var ops []Operation
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, fmt.Errorf("failed to decode diff: %w", err)
	}
	return ops, nil
}

// Equal reports whether two specs encode to the same JSON document
func Equal(a, b Spec) bool {
	ops, err := Diff(a, b)
	return err == nil && len(ops) == 0
}

// JoinPointer appends escaped reference tokens to a JSON pointer
func JoinPointer(base string, tokens ...string) string {
	out := base
	for _, t := range tokens {
		out += "/" + jsonpointer.Escape(t)
	}
	return out
}
