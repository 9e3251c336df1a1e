package ports

import (
	"context"

	"trailbook/internal/domain"
)

// History is the interaction history of one entity
type History interface {
	EntityID() string

	AddInteraction(ctx context.Context, rec domain.Interaction, label string) (string, error)
	SetMessage(ctx context.Context, msg string) (string, error)

	To(ctx context.Context, nodeID string) error
	Undo(ctx context.Context) error
	Redo(ctx context.Context) error
	Reset(ctx context.Context) error
	Reload(ctx context.Context) error

	Export() (string, error)
	Import(ctx context.Context, export string) error

	Root() string
	Current() string
	Nodes() []domain.HistoryNode
	Node(nodeID string) (domain.HistoryNode, bool)
	Tree() *domain.TreeNode
	State() (domain.State, error)
	StateAt(nodeID string) (domain.State, error)
	Interaction(nodeID string) (domain.Interaction, bool)

	Baseline(ctx context.Context) (domain.Spec, bool, error)
	SaveBaseline(ctx context.Context, spec domain.Spec) error
}
