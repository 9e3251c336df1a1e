package domain

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// FieldRange is one per-field range predicate in a filter transform
type FieldRange struct {
	Field string `json:"field"`
	Range Range  `json:"range"`
}

// Ranges renders a selection as field range predicates, sorted by field
func Ranges(selection map[string]Range) []FieldRange {
	out := make([]FieldRange, 0, len(selection))
	for _, field := range sortedFields(selection) {
		out = append(out, FieldRange{Field: field, Range: selection[field]})
	}
	return out
}

// QueryString renders a selection as a pandas query expression:
// "lo <= field <= hi" per field joined by " & ", bounds rounded to three
// decimals.
func QueryString(selection map[string]Range) string {
	parts := make([]string, 0, len(selection))
	for _, field := range sortedFields(selection) {
		r := selection[field]
		parts = append(parts, formatBound(r.Lo())+" <= "+queryField(field)+" <= "+formatBound(r.Hi()))
	}
	return strings.Join(parts, " & ")
}

// CombinedQueryString joins the query strings of several brushes with " & "
func CombinedQueryString(interactions []Interaction) string {
	var parts []string
	for _, i := range interactions {
		if i.Params == nil || len(i.Params.Selection) == 0 {
			continue
		}
		parts = append(parts, "("+QueryString(i.Params.Selection)+")")
	}
	return strings.Join(parts, " & ")
}

func sortedFields(selection map[string]Range) []string {
	fields := make([]string, 0, len(selection))
	for f := range selection {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func formatBound(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

// queryField backquotes field names pandas cannot parse bare
func queryField(field string) string {
	for i, r := range field {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return "`" + field + "`"
	}
	if field == "" {
		return "``"
	}
	return field
}
