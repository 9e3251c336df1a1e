package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trailbook/internal/domain"
	"trailbook/internal/ports"
)

// BrushLabel labels every committed brush interaction
const BrushLabel = "Brush selection"

// ErrViewUnavailable is returned when a listener is attached to an artifact
// that has no live view
var ErrViewUnavailable = errors.New("rendering view unavailable")

// Committer records interactions; *history.Manager implements it
type Committer interface {
	AddInteraction(ctx context.Context, rec domain.Interaction, label string) (string, error)
}

// Config configures interval listeners
type Config struct {
	Wait   time.Duration
	Clock  Clock
	Logger *zap.Logger

	// OnCommit, if set, is called after every commit attempt
	OnCommit func(rec domain.Interaction, nodeID string, err error)
}

// IntervalListener debounces one interval selection's signal and commits
// the settled brush as a selection-interval interaction
type IntervalListener struct {
	ctx       context.Context
	selection domain.Selection
	spec      domain.Spec
	view      ports.View
	committer Committer
	debouncer *Debouncer
	logger    *zap.Logger
	onCommit  func(domain.Interaction, string, error)
}

// Attach registers a listener for sel on handle's view. spec is the
// specification active at attach time; committed interactions carry it with
// the selection's init replaced by the brushed ranges.
func Attach(ctx context.Context, handle ports.RenderingHandle, sel domain.Selection, spec domain.Spec, committer Committer, cfg Config) (*IntervalListener, error) {
	if handle == nil {
		return nil, fmt.Errorf("%w: no rendering handle for selection %s", ErrViewUnavailable, sel.Name)
	}
	view := handle.View()
	if view == nil {
		return nil, fmt.Errorf("%w: selection %s", ErrViewUnavailable, sel.Name)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &IntervalListener{
		ctx:       ctx,
		selection: sel,
		spec:      spec.Clone(),
		view:      view,
		committer: committer,
		debouncer: NewDebouncer(cfg.Wait, cfg.Clock),
		logger:    logger.With(zap.String("selection", sel.Name)),
		onCommit:  cfg.OnCommit,
	}
	view.AddSignalListener(sel.Name, l)
	return l, nil
}

// Selection returns the selection the listener watches
func (l *IntervalListener) Selection() domain.Selection {
	return l.selection
}

// OnSignal implements ports.SignalListener
func (l *IntervalListener) OnSignal(_ string, value any) {
	l.debouncer.Trigger(func() { l.commit(value) })
}

// Detach cancels any pending commit and removes the listener from the view
func (l *IntervalListener) Detach() {
	l.debouncer.Stop()
	l.view.RemoveSignalListener(l.selection.Name, l)
}

func (l *IntervalListener) commit(value any) {
	if l.ctx.Err() != nil {
		return
	}
	state := l.view.State()
	ranges, ok := domain.ParseRanges(value)
	if !ok {
		ranges, ok = domain.ParseRanges(state.Signals[l.selection.Name])
	}
	if !ok {
		l.logger.Debug("empty selection, nothing to commit")
		return
	}

	spec, err := BuildSpec(l.spec, l.selection, ranges)
	if err != nil {
		l.logger.Error("failed to build brushed spec", zap.Error(err))
		l.report(domain.Interaction{}, "", err)
		return
	}
	rec := domain.Interaction{
		ID:   uuid.NewString(),
		Kind: domain.KindSelectionInterval,
		Name: l.selection.Name,
		Path: l.selection.Pointer,
		Params: &domain.IntervalParams{
			Selection: ranges,
			X:         domain.ParseExtent(state.Signals[l.selection.Name+"_x"]),
			Y:         domain.ParseExtent(state.Signals[l.selection.Name+"_y"]),
		},
		Spec: spec,
	}
	nodeID, err := l.committer.AddInteraction(l.ctx, rec, BrushLabel)
	if err != nil {
		l.logger.Error("failed to commit brush", zap.Error(err))
	}
	l.report(rec, nodeID, err)
}

func (l *IntervalListener) report(rec domain.Interaction, nodeID string, err error) {
	if l.onCommit != nil {
		l.onCommit(rec, nodeID, err)
	}
}

// BuildSpec returns base with the selection's init set to ranges
func BuildSpec(base domain.Spec, sel domain.Selection, ranges map[string]domain.Range) (domain.Spec, error) {
	init := make(map[string]any, len(ranges))
	for field, r := range ranges {
		init[field] = []float64{r.Lo(), r.Hi()}
	}
	return domain.ApplyPatch(base, []domain.Operation{{
		Op:    domain.OpAdd,
		Path:  sel.InitPointer(),
		Value: init,
	}})
}
