// Package headless provides an in-memory rendering handle. It keeps the
// specification and signal values without drawing anything, which is what
// the CLI, the MCP server and tests bind histories to.
package headless

import (
	"sync"

	"trailbook/internal/domain"
	"trailbook/internal/ports"
)

var (
	_ ports.RenderingHandle = (*Handle)(nil)
	_ ports.View            = (*View)(nil)
)

// Handle is a rendering handle whose view is a plain signal map
type Handle struct {
	mu      sync.Mutex
	spec    domain.Spec
	view    *View
	patches int
}

// Option configures a Handle
type Option func(*Handle)

// WithoutView creates the handle before its view has rendered; call Render
// to make the view available
func WithoutView() Option {
	return func(h *Handle) {
		h.view = nil
	}
}

// New creates a handle rendering spec
func New(spec domain.Spec, opts ...Option) *Handle {
	h := &Handle{
		spec: spec.Clone(),
		view: newView(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// View implements ports.RenderingHandle
func (h *Handle) View() ports.View {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.view == nil {
		return nil
	}
	return h.view
}

// Live returns the concrete view, or nil before Render
func (h *Handle) Live() *View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view
}

// Render makes the view available if it was not yet
func (h *Handle) Render() *View {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.view == nil {
		h.view = newView()
	}
	return h.view
}

// Spec implements ports.RenderingHandle
func (h *Handle) Spec() domain.Spec {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.spec.Clone()
}

// Patch implements ports.RenderingHandle
func (h *Handle) Patch(ops []domain.Operation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	spec, err := domain.ApplyPatch(h.spec, ops)
	if err != nil {
		return err
	}
	h.spec = spec
	h.patches++
	return nil
}

// Patches returns how many patches have been applied
func (h *Handle) Patches() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.patches
}

// View holds signal values and their listeners
type View struct {
	mu        sync.Mutex
	signals   map[string]any
	listeners map[string][]ports.SignalListener
}

func newView() *View {
	return &View{
		signals:   make(map[string]any),
		listeners: make(map[string][]ports.SignalListener),
	}
}

// State implements ports.View
func (v *View) State() ports.ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	signals := make(map[string]any, len(v.signals))
	for k, val := range v.signals {
		signals[k] = val
	}
	return ports.ViewState{Signals: signals}
}

// AddSignalListener implements ports.View
func (v *View) AddSignalListener(name string, l ports.SignalListener) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners[name] = append(v.listeners[name], l)
}

// RemoveSignalListener implements ports.View
func (v *View) RemoveSignalListener(name string, l ports.SignalListener) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ls := v.listeners[name]
	for i, cur := range ls {
		if cur == l {
			v.listeners[name] = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(v.listeners[name]) == 0 {
		delete(v.listeners, name)
	}
}

// Listeners returns the number of listeners registered for name
func (v *View) Listeners(name string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners[name])
}

// SetSignal stores value and notifies the signal's listeners
func (v *View) SetSignal(name string, value any) {
	v.mu.Lock()
	v.signals[name] = value
	ls := append([]ports.SignalListener(nil), v.listeners[name]...)
	v.mu.Unlock()

	for _, l := range ls {
		l.OnSignal(name, value)
	}
}

// Brush sets a named interval selection's signal to ranges
func (v *View) Brush(name string, ranges map[string]domain.Range) {
	value := make(map[string]any, len(ranges))
	for field, r := range ranges {
		value[field] = []any{r.Lo(), r.Hi()}
	}
	v.SetSignal(name, value)
}
