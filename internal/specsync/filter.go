package specsync

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"trailbook/internal/domain"
)

// FilterMode decides what a baked brush keeps
type FilterMode string

const (
	// FilterExclude drops the brushed data: not(and(ranges)) per brush
	FilterExclude FilterMode = "exclude"
	// FilterKeep keeps only the brushed data: and(ranges) per brush
	FilterKeep FilterMode = "keep"
)

// ParseFilterMode validates a configured filter mode
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(s) {
	case FilterExclude, FilterKeep:
		return FilterMode(s), nil
	case "":
		return FilterExclude, nil
	default:
		return "", fmt.Errorf("unknown filter mode %q", s)
	}
}

// BuildFilter turns every interval selection with an active init into a
// range predicate, ANDs them with the predicates of existing filter
// transforms into one filter transform at /transform/0, and removes the
// inits. Other transforms are kept after it; predicates already present are
// not repeated. Filters of nested transform arrays (inside layers, for
// instance) contribute their predicates but stay where they are. changed is
// false when no selection has an init.
func BuildFilter(spec domain.Spec, mode FilterMode) (domain.Spec, bool, error) {
	var predicates []any
	var ops []domain.Operation
	for _, sel := range domain.FindIntervalSelections(spec) {
		ranges, ok := sel.Init(spec)
		if !ok {
			continue
		}
		predicates = append(predicates, predicate(ranges, mode))
		ops = append(ops, domain.Operation{Op: domain.OpRemove, Path: sel.InitPointer()})
	}
	if len(predicates) == 0 {
		return spec, false, nil
	}

	var others []any
	transforms, _ := spec["transform"].([]any)
	for _, t := range transforms {
		if and, ok := filterAnd(t); ok {
			predicates = append(predicates, and...)
			continue
		}
		others = append(others, t)
	}
	for _, k := range slices.Sorted(maps.Keys(spec)) {
		if k != "transform" {
			predicates = append(predicates, nestedFilters(spec[k])...)
		}
	}
	combined, err := dedupe(predicates)
	if err != nil {
		return nil, false, err
	}

	transform := append([]any{
		map[string]any{"filter": map[string]any{"and": combined}},
	}, others...)
	ops = append(ops, domain.Operation{Op: domain.OpAdd, Path: "/transform", Value: transform})

	out, err := domain.ApplyPatch(spec, ops)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func predicate(ranges map[string]domain.Range, mode FilterMode) any {
	fields := domain.Ranges(ranges)
	and := make([]any, 0, len(fields))
	for _, f := range fields {
		and = append(and, map[string]any{
			"field": f.Field,
			"range": []any{f.Range.Lo(), f.Range.Hi()},
		})
	}
	clause := map[string]any{"and": and}
	if mode == FilterKeep {
		return clause
	}
	return map[string]any{"not": clause}
}

// filterAnd extracts the predicate list of a {"filter": {"and": [...]}} transform
func filterAnd(t any) ([]any, bool) {
	m, ok := t.(map[string]any)
	if !ok {
		return nil, false
	}
	f, ok := m["filter"].(map[string]any)
	if !ok {
		return nil, false
	}
	and, ok := f["and"].([]any)
	return and, ok
}

// nestedFilters collects the filter predicates of every transform array
// below v, in key order
func nestedFilters(v any) []any {
	var out []any
	switch v := v.(type) {
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(v)) {
			if transforms, ok := v[k].([]any); ok && k == "transform" {
				for _, t := range transforms {
					if and, ok := filterAnd(t); ok {
						out = append(out, and...)
					}
				}
			}
			out = append(out, nestedFilters(v[k])...)
		}
	case []any:
		for _, item := range v {
			out = append(out, nestedFilters(item)...)
		}
	}
	return out
}

func dedupe(predicates []any) ([]any, error) {
	seen := make(map[string]bool, len(predicates))
	out := make([]any, 0, len(predicates))
	for _, p := range predicates {
		key, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to encode predicate: %w", err)
		}
		if seen[string(key)] {
			continue
		}
		seen[string(key)] = true
		out = append(out, p)
	}
	return out, nil
}
