// Package specsync keeps rendered artifacts in step with their history: each
// binding pushes the specification of the current node into a rendering
// handle and re-attaches brush listeners for it.
package specsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"trailbook/internal/capture"
	"trailbook/internal/domain"
	"trailbook/internal/history"
	"trailbook/internal/ports"
)

var (
	ErrBindingNotFound = errors.New("no binding for entity")
	ErrBindingDisposed = errors.New("binding disposed")
)

// Options configures a Synchronizer
type Options struct {
	Capture    capture.Config
	FilterMode FilterMode
	Logger     *zap.Logger
}

// Synchronizer owns at most one binding per entity
type Synchronizer struct {
	index  *history.Index
	opts   Options
	logger *zap.Logger

	mu       sync.Mutex
	bindings map[string]*Binding
}

// New creates a synchronizer resolving managers through index
func New(index *history.Index, opts Options) *Synchronizer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Capture.Logger == nil {
		opts.Capture.Logger = logger
	}
	if opts.FilterMode == "" {
		opts.FilterMode = FilterExclude
	}
	return &Synchronizer{
		index:    index,
		opts:     opts,
		logger:   logger,
		bindings: make(map[string]*Binding),
	}
}

// Bind associates handle with the entity's history, disposing any previous
// binding of the entity, and pushes the current node's specification.
//
// The baseline is the persisted one when the entity has it; otherwise
// baseline (or the handle's spec when baseline is nil) is persisted.
// Listeners are not attached until AttachListeners or the next navigation.
func (s *Synchronizer) Bind(ctx context.Context, entityID string, handle ports.RenderingHandle, baseline domain.Spec) (*Binding, error) {
	if handle == nil {
		return nil, fmt.Errorf("bind %s: rendering handle is required", entityID)
	}
	m, err := s.index.Lookup(entityID)
	if err != nil {
		return nil, err
	}

	saved, ok, err := m.Baseline(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline: %w", err)
	}
	if ok {
		baseline = saved
	} else {
		if baseline == nil {
			baseline = handle.Spec()
		}
		if err := m.SaveBaseline(ctx, baseline); err != nil {
			return nil, fmt.Errorf("failed to save baseline: %w", err)
		}
	}

	b := newBinding(s, m, handle, baseline)

	s.mu.Lock()
	prev := s.bindings[entityID]
	s.bindings[entityID] = b
	s.mu.Unlock()
	if prev != nil {
		prev.Dispose()
	}

	state, err := m.State()
	if err != nil {
		b.Dispose()
		return nil, err
	}
	if err := b.push(b.specFor(state)); err != nil {
		b.Dispose()
		return nil, err
	}
	if err := b.subscribe(); err != nil {
		return nil, err
	}
	s.logger.Debug("artifact bound", zap.String("entity", entityID))
	return b, nil
}

// Lookup returns the live binding for entityID
func (s *Synchronizer) Lookup(entityID string) (*Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBindingNotFound, entityID)
	}
	return b, nil
}

// Entities returns the bound entity ids, sorted
func (s *Synchronizer) Entities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.bindings))
	for id := range s.bindings {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Unbind disposes the entity's binding, if any
func (s *Synchronizer) Unbind(entityID string) {
	s.mu.Lock()
	b := s.bindings[entityID]
	s.mu.Unlock()
	if b != nil {
		b.Dispose()
	}
}

// Close disposes every binding
func (s *Synchronizer) Close() {
	s.mu.Lock()
	bindings := make([]*Binding, 0, len(s.bindings))
	for _, b := range s.bindings {
		bindings = append(bindings, b)
	}
	s.mu.Unlock()
	for _, b := range bindings {
		b.Dispose()
	}
}

func (s *Synchronizer) release(b *Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bindings[b.entityID] == b {
		delete(s.bindings, b.entityID)
	}
}
