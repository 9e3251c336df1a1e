// Package provenance implements a branching, serializable history of
// application states. A Registry maps action kinds to reducers and builds
// Graphs; a Graph records every applied action as a node and tracks the
// current position.
package provenance

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RootAction is the action name carried by every root node
const RootAction = "root"

const (
	defaultCheckpointEvery = 10
	defaultCacheSize       = 256
)

// Reducer mutates a working copy of the state to apply one action
type Reducer[S any] func(state *S, args json.RawMessage) error

// Typed adapts a reducer taking decoded arguments
func Typed[S, A any](fn func(state *S, args A) error) Reducer[S] {
	return func(state *S, raw json.RawMessage) error {
		var args A
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return fmt.Errorf("failed to decode action args: %w", err)
			}
		}
		return fn(state, args)
	}
}

// Action is a serializable application of a registered reducer
type Action struct {
	Kind string
	Args json.RawMessage
}

// ActionCreator binds arguments to a registered kind
type ActionCreator func(args any) (Action, error)

// Option configures the graphs a registry creates
type Option func(*options)

type options struct {
	checkpointEvery int
	cacheSize       int
	now             func() time.Time
	newID           func() string
}

// WithCheckpointEvery stores a full state snapshot every n levels of depth;
// other nodes store a merge-patch delta from their parent
func WithCheckpointEvery(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.checkpointEvery = n
		}
	}
}

// WithCacheSize bounds the number of materialized states kept in memory
func WithCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithClock overrides the node timestamp source
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator overrides the node id source
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		o.newID = newID
	}
}

// Registry maps action kinds to reducers
type Registry[S any] struct {
	mu       sync.RWMutex
	reducers map[string]Reducer[S]
	initial  func() S
	opts     options
}

// NewRegistry creates a registry whose graphs default to initial()
func NewRegistry[S any](initial func() S, opts ...Option) *Registry[S] {
	o := options{
		checkpointEvery: defaultCheckpointEvery,
		cacheSize:       defaultCacheSize,
		now:             time.Now,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry[S]{
		reducers: make(map[string]Reducer[S]),
		initial:  initial,
		opts:     o,
	}
}

// Register adds a reducer under kind and returns its action creator
func (r *Registry[S]) Register(kind string, reducer Reducer[S]) (ActionCreator, error) {
	if kind == RootAction {
		return nil, fmt.Errorf("%w: %q", ErrReservedKind, kind)
	}
	if kind == "" || reducer == nil {
		return nil, fmt.Errorf("register: kind and reducer are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.reducers[kind]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateKind, kind)
	}
	r.reducers[kind] = reducer

	return func(args any) (Action, error) {
		if args == nil {
			return Action{Kind: kind}, nil
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return Action{}, fmt.Errorf("failed to encode %s args: %w", kind, err)
		}
		return Action{Kind: kind, Args: raw}, nil
	}, nil
}

// MustRegister is like Register but panics on error
func (r *Registry[S]) MustRegister(kind string, reducer Reducer[S]) ActionCreator {
	create, err := r.Register(kind, reducer)
	if err != nil {
		panic(err)
	}
	return create
}

// Kinds returns the registered kinds, sorted
func (r *Registry[S]) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.reducers))
	for k := range r.reducers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func (r *Registry[S]) reducer(kind string) (Reducer[S], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.reducers[kind]
	return fn, ok
}

// New starts a single-node graph seeded with the default initial state
func (r *Registry[S]) New() (*Graph[S], error) {
	return r.NewFrom(r.initial())
}

// NewFrom starts a single-node graph seeded with initial
func (r *Registry[S]) NewFrom(initial S) (*Graph[S], error) {
	state, err := json.Marshal(initial)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initial state: %w", err)
	}
	g, err := newGraph(r)
	if err != nil {
		return nil, err
	}
	root := &node{
		ID:        r.opts.newID(),
		Children:  []string{},
		Label:     "Root",
		Action:    RootAction,
		State:     state,
		CreatedAt: r.opts.now().UnixMilli(),
	}
	g.insert(root)
	g.root = root.ID
	g.current = root.ID
	return g, nil
}

// Create loads saved when it is non-empty and starts a default graph otherwise
func (r *Registry[S]) Create(saved string) (*Graph[S], error) {
	if saved == "" {
		return r.New()
	}
	return r.Load(saved)
}
