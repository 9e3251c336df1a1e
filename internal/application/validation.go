package application

import (
	"fmt"
	"strings"

	"trailbook/internal/ports"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "entityID" -> "entity ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"entityID":  "entity ID",
		"nodeID":    "node ID",
		"selection": "selection name",
		"dataframe": "dataframe name",
		"export":    "export",
		"message":   "message",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}

// ResolveNode expands a node reference to a full node id. The reference may
// be a full id, a unique id prefix, or one of "root" and "current".
func ResolveNode(h ports.History, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if err := ValidateRequired("nodeID", ref); err != nil {
		return "", err
	}

	switch ref {
	case "root":
		return h.Root(), nil
	case "current":
		return h.Current(), nil
	}

	if _, ok := h.Node(ref); ok {
		return ref, nil
	}

	var matches []string
	for _, n := range h.Nodes() {
		if strings.HasPrefix(n.ID, ref) {
			matches = append(matches, n.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("node %s: %w", ref, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousIDError{Prefix: ref, Matches: matches}
	}
}
