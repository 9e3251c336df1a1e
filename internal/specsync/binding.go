package specsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trailbook/internal/capture"
	"trailbook/internal/domain"
	"trailbook/internal/history"
	"trailbook/internal/ports"
	"trailbook/internal/signal"
)

// FilterLabel labels every committed filter interaction
const FilterLabel = "Filter"

// Binding ties one rendering handle to one entity's history
type Binding struct {
	entityID string
	owner    *Synchronizer
	manager  *history.Manager
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	sub      *signal.Subscription[history.CurrentChange]
	gone     *signal.Subscription[string]

	mu        sync.Mutex
	handle    ports.RenderingHandle
	baseline  domain.Spec
	active    domain.Spec
	listeners []*capture.IntervalListener
	err       error
	disposed  bool
}

func newBinding(s *Synchronizer, m *history.Manager, handle ports.RenderingHandle, baseline domain.Spec) *Binding {
	ctx, cancel := context.WithCancel(context.Background())
	return &Binding{
		entityID: m.EntityID(),
		owner:    s,
		manager:  m,
		logger:   s.logger.With(zap.String("entity", m.EntityID())),
		ctx:      ctx,
		cancel:   cancel,
		handle:   handle,
		baseline: baseline.Clone(),
	}
}

// EntityID returns the bound entity id
func (b *Binding) EntityID() string {
	return b.entityID
}

// Baseline returns a copy of the pristine specification
func (b *Binding) Baseline() domain.Spec {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.baseline.Clone()
}

// ActiveSpec returns a copy of the specification last pushed to the handle
func (b *Binding) ActiveSpec() domain.Spec {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active.Clone()
}

// Listeners returns the selections currently listened to
func (b *Binding) Listeners() []domain.Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Selection, 0, len(b.listeners))
	for _, l := range b.listeners {
		out = append(out, l.Selection())
	}
	return out
}

// Err returns the last error raised while reacting to a navigation
func (b *Binding) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// subscribe follows the manager's navigation and disposes the binding with
// the manager
func (b *Binding) subscribe() error {
	sub := b.manager.OnCurrentChange(b.onCurrentChange)
	gone := b.manager.OnDisposed(b.onManagerDisposed)
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		sub.Unsubscribe()
		gone.Unsubscribe()
		return ErrBindingDisposed
	}
	b.sub, b.gone = sub, gone
	b.mu.Unlock()

	if b.manager.Disposed() {
		b.Dispose()
		return history.ErrDisposed
	}
	return nil
}

func (b *Binding) onManagerDisposed(string) {
	b.logger.Debug("history disposed, unbinding artifact")
	b.Dispose()
}

func (b *Binding) onCurrentChange(ch history.CurrentChange) {
	err := b.push(b.specFor(ch.State))
	if err == nil {
		err = b.AttachListeners()
	}
	if err != nil {
		b.logger.Error("failed to synchronize artifact",
			zap.String("node", ch.NodeID),
			zap.Error(err),
		)
	}
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

// specFor picks the specification of the most recent interaction that has
// one, falling back to the baseline
func (b *Binding) specFor(state domain.State) domain.Spec {
	if spec, ok := state.LastSpec(); ok {
		return spec.Clone()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.baseline.Clone()
}

// push patches the handle's spec into target, touching only what differs
func (b *Binding) push(target domain.Spec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return ErrBindingDisposed
	}
	ops, err := domain.Diff(b.handle.Spec(), target)
	if err != nil {
		return err
	}
	if len(ops) > 0 {
		if err := b.handle.Patch(ops); err != nil {
			return fmt.Errorf("failed to patch artifact: %w", err)
		}
		b.logger.Debug("artifact patched", zap.Int("ops", len(ops)))
	}
	b.active = target
	return nil
}

// AttachListeners removes the current brush listeners and attaches a fresh
// one per interval selection of the active specification. It fails with
// capture.ErrViewUnavailable when the handle has no live view.
func (b *Binding) AttachListeners() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return ErrBindingDisposed
	}
	b.detachLocked()

	for _, sel := range domain.FindIntervalSelections(b.active) {
		l, err := capture.Attach(b.ctx, b.handle, sel, b.active, b.manager, b.owner.opts.Capture)
		if err != nil {
			return err
		}
		b.listeners = append(b.listeners, l)
	}
	return nil
}

func (b *Binding) detachLocked() {
	for _, l := range b.listeners {
		l.Detach()
	}
	b.listeners = nil
}

// Filter bakes the active brushes into a single filter transform and
// commits the result as a filter interaction. It is a no-op when the
// current path has no brush or the transform would not change.
func (b *Binding) Filter(ctx context.Context) (string, bool, error) {
	state, err := b.manager.State()
	if err != nil {
		return "", false, err
	}
	if len(state.OfKind(domain.KindSelectionInterval)) == 0 {
		return "", false, nil
	}

	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return "", false, ErrBindingDisposed
	}
	base := b.active.Clone()
	b.mu.Unlock()

	spec, changed, err := BuildFilter(base, b.owner.opts.FilterMode)
	if err != nil || !changed {
		return "", false, err
	}
	rec := domain.Interaction{
		ID:   uuid.NewString(),
		Kind: domain.KindFilter,
		Path: "/transform/0",
		Spec: spec,
	}
	id, err := b.manager.AddInteraction(ctx, rec, FilterLabel)
	if err != nil {
		return id, id != "", err
	}
	return id, true, nil
}

// Dispose detaches listeners, cancels pending commits, unsubscribes from
// the history and drops the handle reference. It runs on its own when the
// bound manager is disposed or replaced. Calling it again is a no-op.
func (b *Binding) Dispose() {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		return
	}
	b.disposed = true
	b.cancel()
	b.detachLocked()
	b.handle = nil
	sub, gone := b.sub, b.gone
	b.mu.Unlock()

	sub.Unsubscribe()
	gone.Unsubscribe()
	b.owner.release(b)
	b.logger.Debug("artifact unbound")
}

// Disposed reports whether Dispose has been called
func (b *Binding) Disposed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disposed
}
