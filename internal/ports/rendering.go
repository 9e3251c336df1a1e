package ports

import "trailbook/internal/domain"

// ViewState is a snapshot of a rendered view's signal values
type ViewState struct {
	Signals map[string]any
}

// SignalListener receives signal updates. Implementations must be
// comparable (pointer types) so they can be removed again.
type SignalListener interface {
	OnSignal(name string, value any)
}

// View is the live, interactive part of a rendered artifact
type View interface {
	State() ViewState
	AddSignalListener(name string, l SignalListener)
	RemoveSignalListener(name string, l SignalListener)
}

// RenderingHandle is a rendered artifact owned by the host. The history
// engine only ever holds a non-owning reference to it.
type RenderingHandle interface {
	// View returns the live view, or nil if the artifact has not rendered yet
	View() View

	// Spec returns a copy of the backing specification
	Spec() domain.Spec

	// Patch applies structural operations to the backing specification and
	// re-renders
	Patch(ops []domain.Operation) error
}
