package application

import "trailbook/internal/domain"

// Re-export domain types for use by adapters
type (
	TreeNode    = domain.TreeNode
	HistoryNode = domain.HistoryNode
	Interaction = domain.Interaction
	State       = domain.State
	Spec        = domain.Spec
	Kind        = domain.Kind
)

// ShortIDLength is how many characters of a node id are displayed
const ShortIDLength = 8

// ShortID abbreviates a node id for display
func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}
