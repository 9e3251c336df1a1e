package provenance

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	lru "github.com/hashicorp/golang-lru/v2"

	"trailbook/internal/domain"
)

// node is the stored form of one history point. Exactly one of State
// (checkpoint) or Delta (merge patch against the parent state) is set on
// non-root nodes; the root always carries State.
type node struct {
	ID        string          `json:"id"`
	Parent    string          `json:"parent,omitempty"`
	Children  []string        `json:"children"`
	Label     string          `json:"label"`
	Action    string          `json:"action"`
	Args      json.RawMessage `json:"args,omitempty"`
	State     json.RawMessage `json:"state,omitempty"`
	Delta     json.RawMessage `json:"delta,omitempty"`
	Depth     int             `json:"depth"`
	CreatedAt int64           `json:"createdAt"`
}

// Graph is a branching history of states of type S
type Graph[S any] struct {
	mu       sync.RWMutex
	registry *Registry[S]
	nodes    map[string]*node
	order    []string
	root     string
	current  string
	cache    *lru.Cache[string, []byte]
}

func newGraph[S any](r *Registry[S]) (*Graph[S], error) {
	cache, err := lru.New[string, []byte](r.opts.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create state cache: %w", err)
	}
	return &Graph[S]{
		registry: r,
		nodes:    make(map[string]*node),
		cache:    cache,
	}, nil
}

func (g *Graph[S]) insert(n *node) {
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
}

// Apply runs action's reducer on a copy of the current state and records the
// result as a new child of the current node, which becomes current. On any
// error the graph is left unchanged.
func (g *Graph[S]) Apply(label string, action Action) (string, error) {
	reducer, ok := g.registry.reducer(action.Kind)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, action.Kind)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	parent := g.nodes[g.current]
	base, err := g.materialize(parent)
	if err != nil {
		return "", err
	}

	var state S
	if err := json.Unmarshal(base, &state); err != nil {
		return "", fmt.Errorf("failed to decode state at %s: %w", parent.ID, err)
	}
	if err := runReducer(reducer, &state, action.Args); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrReducer, action.Kind, err)
	}
	next, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}

	if label == "" {
		label = action.Kind
	}
	n := &node{
		ID:        g.registry.opts.newID(),
		Parent:    parent.ID,
		Children:  []string{},
		Label:     label,
		Action:    action.Kind,
		Args:      action.Args,
		Depth:     parent.Depth + 1,
		CreatedAt: g.registry.opts.now().UnixMilli(),
	}
	if n.Depth%g.registry.opts.checkpointEvery == 0 {
		n.State = next
	} else {
		delta, err := jsonpatch.CreateMergePatch(base, next)
		if err != nil {
			return "", fmt.Errorf("failed to compute state delta: %w", err)
		}
		n.Delta = delta
		// Merge patches cannot carry explicit nulls; store those states whole
		if replayed, err := jsonpatch.MergePatch(base, delta); err != nil || !jsonpatch.Equal(replayed, next) {
			n.State, n.Delta = next, nil
		}
	}

	parent.Children = append(parent.Children, n.ID)
	g.insert(n)
	g.current = n.ID
	g.cache.Add(n.ID, next)
	return n.ID, nil
}

func runReducer[S any](reducer Reducer[S], state *S, args json.RawMessage) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return reducer(state, args)
}

// To moves the current pointer to id
func (g *Graph[S]) To(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	g.current = id
	return nil
}

// State materializes the state at the current node
func (g *Graph[S]) State() (S, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.decodeAt(g.current)
}

// StateAt materializes the state at node id
func (g *Graph[S]) StateAt(id string) (S, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.decodeAt(id)
}

func (g *Graph[S]) decodeAt(id string) (S, error) {
	var state S
	n, ok := g.nodes[id]
	if !ok {
		return state, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	raw, err := g.materialize(n)
	if err != nil {
		return state, err
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return state, fmt.Errorf("failed to decode state at %s: %w", id, err)
	}
	return state, nil
}

// materialize walks up to the nearest checkpoint or cached state and replays
// deltas back down to n
func (g *Graph[S]) materialize(n *node) ([]byte, error) {
	if raw, ok := g.cache.Get(n.ID); ok {
		return raw, nil
	}

	var chain []*node
	var doc []byte
	for cur := n; ; {
		if raw, ok := g.cache.Get(cur.ID); ok {
			doc = raw
			break
		}
		if len(cur.State) > 0 {
			doc = cur.State
			g.cache.Add(cur.ID, doc)
			break
		}
		chain = append(chain, cur)
		parent, ok := g.nodes[cur.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: parent of %s", ErrNodeNotFound, cur.ID)
		}
		cur = parent
	}

	for i := len(chain) - 1; i >= 0; i-- {
		next, err := jsonpatch.MergePatch(doc, chain[i].Delta)
		if err != nil {
			return nil, fmt.Errorf("failed to replay delta at %s: %w", chain[i].ID, err)
		}
		doc = next
		g.cache.Add(chain[i].ID, doc)
	}
	return doc, nil
}

// Root returns the root node id
func (g *Graph[S]) Root() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.root
}

// Current returns the current node id
func (g *Graph[S]) Current() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// IsAtRoot reports whether the current node is the root
func (g *Graph[S]) IsAtRoot() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current == g.root
}

// IsAtLatest reports whether the current node has no children
func (g *Graph[S]) IsAtLatest() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes[g.current].Children) == 0
}

// HasOnlyRoot reports whether no action has been applied yet
func (g *Graph[S]) HasOnlyRoot() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes[g.root].Children) == 0
}

// Len returns the number of nodes
func (g *Graph[S]) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// Node returns a read-only view of node id
func (g *Graph[S]) Node(id string) (domain.HistoryNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return domain.HistoryNode{}, false
	}
	return view(n), true
}

// Nodes returns every node in creation order
func (g *Graph[S]) Nodes() []domain.HistoryNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]domain.HistoryNode, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, view(g.nodes[id]))
	}
	return out
}

// Args returns the encoded action arguments recorded at node id
func (g *Graph[S]) Args(id string) (json.RawMessage, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), n.Args...), true
}

func view(n *node) domain.HistoryNode {
	return domain.HistoryNode{
		ID:        n.ID,
		ParentID:  n.Parent,
		Children:  append([]string(nil), n.Children...),
		Label:     n.Label,
		Kind:      n.Action,
		CreatedAt: time.UnixMilli(n.CreatedAt),
	}
}
