package domain

import (
	"fmt"
	"slices"
	"strconv"
)

// SelectionTypeInterval is the selection type a brush produces
const SelectionTypeInterval = "interval"

// Selection locates an interval selection definition inside a spec
type Selection struct {
	Name    string // selection name, also the view signal name
	Pointer string // JSON pointer to the definition, e.g. /selection/brush
}

// InitPointer is the pointer to the selection's initial (active) value
func (s Selection) InitPointer() string {
	return JoinPointer(s.Pointer, "init")
}

// Init returns the selection's active ranges recorded in spec
func (s Selection) Init(spec Spec) (map[string]Range, bool) {
	v, ok := spec.Lookup(s.InitPointer())
	if !ok {
		return nil, false
	}
	return ParseRanges(v)
}

// FindIntervalSelections returns every interval selection defined in spec,
// ordered by pointer. Subtrees under "encoding" hold selection references,
// not definitions, and are skipped.
func FindIntervalSelections(spec Spec) []Selection {
	var out []Selection
	walkSelections(map[string]any(spec), "", &out)
	slices.SortFunc(out, func(a, b Selection) int {
		if a.Pointer < b.Pointer {
			return -1
		}
		if a.Pointer > b.Pointer {
			return 1
		}
		return 0
	})
	return out
}

func walkSelections(node any, pointer string, out *[]Selection) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			if key == "encoding" {
				continue
			}
			if key == "selection" {
				if defs, ok := child.(map[string]any); ok {
					collectIntervals(defs, JoinPointer(pointer, key), out)
				}
			}
			walkSelections(child, JoinPointer(pointer, key), out)
		}
	case Spec:
		walkSelections(map[string]any(v), pointer, out)
	case []any:
		for i, child := range v {
			walkSelections(child, JoinPointer(pointer, strconv.Itoa(i)), out)
		}
	}
}

func collectIntervals(defs map[string]any, pointer string, out *[]Selection) {
	for name, def := range defs {
		m, ok := def.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := m["type"].(string); t != SelectionTypeInterval {
			continue
		}
		*out = append(*out, Selection{Name: name, Pointer: JoinPointer(pointer, name)})
	}
}

// ParseRanges converts a decoded selection value (field -> [lo, hi]) into
// typed ranges. Non-numeric fields are skipped.
func ParseRanges(v any) (map[string]Range, bool) {
	switch m := v.(type) {
	case map[string]Range:
		return m, len(m) > 0
	case map[string]any:
		out := make(map[string]Range, len(m))
		for field, raw := range m {
			r, err := parseRange(raw)
			if err != nil {
				continue
			}
			out[field] = r
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}

func parseRange(v any) (Range, error) {
	switch r := v.(type) {
	case Range:
		return r, nil
	case [2]float64:
		return Range(r), nil
	case []float64:
		if len(r) < 2 {
			return Range{}, fmt.Errorf("range needs two bounds, got %d", len(r))
		}
		return orderedRange(r[0], r[len(r)-1]), nil
	case []any:
		if len(r) < 2 {
			return Range{}, fmt.Errorf("range needs two bounds, got %d", len(r))
		}
		lo, ok1 := toFloat(r[0])
		hi, ok2 := toFloat(r[len(r)-1])
		if !ok1 || !ok2 {
			return Range{}, fmt.Errorf("range bounds must be numeric")
		}
		return orderedRange(lo, hi), nil
	default:
		return Range{}, fmt.Errorf("unsupported range value %T", v)
	}
}

func orderedRange(a, b float64) Range {
	if a > b {
		return Range{b, a}
	}
	return Range{a, b}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// ParseExtent converts a pixel extent signal ([x0, x1]) into floats
func ParseExtent(v any) []float64 {
	switch e := v.(type) {
	case []float64:
		return slices.Clone(e)
	case []any:
		out := make([]float64, 0, len(e))
		for _, raw := range e {
			if f, ok := toFloat(raw); ok {
				out = append(out, f)
			}
		}
		return out
	default:
		return nil
	}
}
