// Package history owns one provenance graph per tracked entity, persists it
// into the entity's metadata store and announces every change.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trailbook/internal/domain"
	"trailbook/internal/ports"
	"trailbook/internal/provenance"
	"trailbook/internal/signal"
)

// CurrentChange is emitted whenever the current node moves
type CurrentChange struct {
	EntityID string
	NodeID   string
	State    domain.State
}

// InstanceChange is emitted whenever the graph instance is replaced
type InstanceChange struct {
	EntityID string
	RootID   string
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver sets the activity observer
func WithObserver(o ports.Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithGraphOptions configures the graphs the manager creates
func WithGraphOptions(opts ...provenance.Option) Option {
	return func(m *Manager) {
		m.graphOpts = append(m.graphOpts, opts...)
	}
}

// Manager owns the history graph of one entity
type Manager struct {
	entityID  string
	store     ports.MetadataStore
	index     *Index
	logger    *zap.Logger
	observer  ports.Observer
	graphOpts []provenance.Option

	registry *Registry
	actions  Actions

	mu       sync.Mutex
	graph    *Graph
	disposed bool

	// serializes export+write so the store never goes back in time
	persistMu sync.Mutex

	// serializes graph mutations against swaps
	opMu sync.Mutex

	changed       signal.Signal[InstanceChange]
	currentChange signal.Signal[CurrentChange]
	disposal      signal.Signal[string]
}

// Ensure Manager implements History
var _ ports.History = (*Manager)(nil)

// NewManager loads the entity's saved graph (or starts a fresh one),
// persists it and registers the manager in index, disposing any manager it
// replaces
func NewManager(ctx context.Context, entityID string, store ports.MetadataStore, index *Index, opts ...Option) (*Manager, error) {
	if entityID == "" {
		return nil, fmt.Errorf("entity id is required")
	}
	if store == nil || index == nil {
		return nil, fmt.Errorf("metadata store and index are required")
	}
	m := &Manager{
		entityID: entityID,
		store:    store,
		index:    index,
		logger:   zap.NewNop(),
		observer: ports.NopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("entity", entityID))
	m.registry, m.actions = NewRegistry(m.graphOpts...)

	saved, _, err := store.Get(ctx, entityID, ports.GraphKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read saved graph: %w", err)
	}
	g, err := m.registry.Create(saved)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved graph for %s: %w", entityID, err)
	}
	m.graph = g

	if err := m.persist(ctx); err != nil {
		return nil, err
	}
	if prev := index.replace(m); prev != nil {
		prev.Dispose()
	}
	m.logger.Debug("history manager created",
		zap.String("root", g.Root()),
		zap.Int("nodes", g.Len()),
	)

	m.emitInstance(g)
	m.emitCurrent(g)
	return m, nil
}

// EntityID returns the tracked entity id
func (m *Manager) EntityID() string {
	return m.entityID
}

// AddInteraction validates rec, applies it as a new child of the current
// node and persists the graph. label defaults to the record's kind tag.
// A persistence failure is returned after the node has been recorded.
func (m *Manager) AddInteraction(ctx context.Context, rec domain.Interaction, label string) (string, error) {
	if err := domain.ValidateInteraction(rec); err != nil {
		return "", err
	}
	action, err := m.actions.Action(rec)
	if err != nil {
		return "", err
	}
	if label == "" {
		label = rec.Kind.String()
	}

	g, id, perr, err := m.apply(ctx, label, action)
	if err != nil {
		return "", err
	}
	m.logger.Debug("interaction added",
		zap.String("node", id),
		zap.String("kind", rec.Kind.String()),
		zap.String("label", label),
	)
	m.observer.InteractionAdded(m.entityID, rec.Kind)

	if m.current() != g {
		m.logger.Warn("interaction superseded by a graph swap", zap.String("node", id))
		return id, fmt.Errorf("%w: node %s", ErrSuperseded, id)
	}
	m.emitCurrent(g)
	return id, perr
}

// apply records action on the live graph and persists it. A swap cannot land
// between the two; the returned persist error does not undo the node.
func (m *Manager) apply(ctx context.Context, label string, action provenance.Action) (g *Graph, id string, perr, err error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	g, err = m.live()
	if err != nil {
		return nil, "", nil, err
	}
	id, err = g.Apply(label, action)
	if err != nil {
		return nil, "", nil, err
	}
	perr = m.persist(ctx)
	if !m.index.ensure(m) {
		m.logger.Warn("entity is owned by another manager")
	}
	return g, id, perr, nil
}

// SetMessage records a test interaction that sets the state message
func (m *Manager) SetMessage(ctx context.Context, msg string) (string, error) {
	return m.AddInteraction(ctx, domain.Interaction{
		ID:   uuid.NewString(),
		Kind: domain.KindTest,
		Name: msg,
	}, "")
}

// To moves the current node to nodeID. The current node is unchanged when
// nodeID does not exist.
func (m *Manager) To(ctx context.Context, nodeID string) error {
	m.opMu.Lock()
	g, err := m.live()
	if err == nil {
		err = g.To(nodeID)
	}
	if err != nil {
		m.opMu.Unlock()
		return err
	}
	perr := m.persist(ctx)
	m.opMu.Unlock()

	m.observer.Navigated(m.entityID)
	if m.current() != g {
		return fmt.Errorf("%w: move to %s", ErrSuperseded, nodeID)
	}
	m.emitCurrent(g)
	return perr
}

// Undo moves to the parent of the current node
func (m *Manager) Undo(ctx context.Context) error {
	g, err := m.live()
	if err != nil {
		return err
	}
	n, _ := g.Node(g.Current())
	if n.IsRoot() {
		return ErrAtRoot
	}
	return m.To(ctx, n.ParentID)
}

// Redo moves to the most recently created child of the current node
func (m *Manager) Redo(ctx context.Context) error {
	g, err := m.live()
	if err != nil {
		return err
	}
	n, _ := g.Node(g.Current())
	if len(n.Children) == 0 {
		return ErrAtLatest
	}
	return m.To(ctx, n.Children[len(n.Children)-1])
}

// Reset discards the graph and starts a blank one from the default state.
// The persisted export is overwritten; use Reload to re-read it instead.
func (m *Manager) Reset(ctx context.Context) error {
	g, err := m.registry.New()
	if err != nil {
		return err
	}
	perr, err := m.install(ctx, g, true)
	if err != nil {
		return err
	}
	m.observer.Reset(m.entityID)
	m.logger.Info("history reset", zap.String("root", g.Root()))

	m.emitInstance(g)
	m.emitCurrent(g)
	return perr
}

// Reload replaces the graph with the one persisted in the metadata store.
// The current graph is kept if the persisted export cannot be loaded.
func (m *Manager) Reload(ctx context.Context) error {
	saved, _, err := m.store.Get(ctx, m.entityID, ports.GraphKey)
	if err != nil {
		return fmt.Errorf("failed to read saved graph: %w", err)
	}
	g, err := m.registry.Create(saved)
	if err != nil {
		return err
	}
	if _, err := m.install(ctx, g, false); err != nil {
		return err
	}
	m.emitInstance(g)
	m.emitCurrent(g)
	return nil
}

// Import replaces the graph with an export produced elsewhere and persists it
func (m *Manager) Import(ctx context.Context, export string) error {
	g, err := m.registry.Load(export)
	if err != nil {
		return err
	}
	perr, err := m.install(ctx, g, true)
	if err != nil {
		return err
	}
	m.emitInstance(g)
	m.emitCurrent(g)
	return perr
}

// install swaps in g and, when save is set, persists it before any pending
// mutation of the old graph can run
func (m *Manager) install(ctx context.Context, g *Graph, save bool) (perr, err error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if err := m.swap(g); err != nil {
		return nil, err
	}
	if save {
		perr = m.persist(ctx)
	}
	m.index.ensure(m)
	return perr, nil
}

// swap installs g, unregistering the manager while the old instance goes away
func (m *Manager) swap(g *Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}
	m.index.unregister(m)
	m.graph = g
	return nil
}

// Dispose unregisters the manager, announces the disposal to OnDisposed
// subscribers and releases every subscriber. Calling it again is a no-op.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.mu.Unlock()

	m.index.unregister(m)
	m.disposal.Emit(m.entityID)
	m.changed.Clear()
	m.currentChange.Clear()
	m.disposal.Clear()
	m.logger.Debug("history manager disposed")
}

// Disposed reports whether Dispose has been called
func (m *Manager) Disposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}

// OnChanged subscribes to graph instance replacement
func (m *Manager) OnChanged(fn func(InstanceChange)) *signal.Subscription[InstanceChange] {
	return m.changed.Subscribe(fn)
}

// OnCurrentChange subscribes to current node moves
func (m *Manager) OnCurrentChange(fn func(CurrentChange)) *signal.Subscription[CurrentChange] {
	return m.currentChange.Subscribe(fn)
}

// OnDisposed subscribes to the manager's disposal. fn receives the entity id
// once, synchronously from Dispose; subscribers added after disposal are
// never called, so check Disposed after subscribing.
func (m *Manager) OnDisposed(fn func(string)) *signal.Subscription[string] {
	return m.disposal.Subscribe(fn)
}

func (m *Manager) live() (*Graph, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return nil, ErrDisposed
	}
	return m.graph, nil
}

func (m *Manager) current() *Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph
}

func (m *Manager) persist(ctx context.Context) error {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	export, err := m.current().Export()
	if err == nil {
		err = m.store.Set(ctx, m.entityID, ports.GraphKey, export)
	}
	if err != nil {
		m.observer.PersistFailed(m.entityID)
		m.logger.Error("failed to persist history", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (m *Manager) emitInstance(g *Graph) {
	m.changed.Emit(InstanceChange{EntityID: m.entityID, RootID: g.Root()})
}

func (m *Manager) emitCurrent(g *Graph) {
	state, err := g.State()
	if err != nil {
		m.logger.Error("failed to materialize current state", zap.Error(err))
		return
	}
	m.currentChange.Emit(CurrentChange{
		EntityID: m.entityID,
		NodeID:   g.Current(),
		State:    state,
	})
}

// Root returns the root node id
func (m *Manager) Root() string { return m.current().Root() }

// Current returns the current node id
func (m *Manager) Current() string { return m.current().Current() }

// IsAtRoot reports whether the current node is the root
func (m *Manager) IsAtRoot() bool { return m.current().IsAtRoot() }

// IsAtLatest reports whether the current node has no children
func (m *Manager) IsAtLatest() bool { return m.current().IsAtLatest() }

// HasOnlyRoot reports whether nothing has been recorded yet
func (m *Manager) HasOnlyRoot() bool { return m.current().HasOnlyRoot() }

// State materializes the state at the current node
func (m *Manager) State() (domain.State, error) { return m.current().State() }

// StateAt materializes the state at nodeID
func (m *Manager) StateAt(nodeID string) (domain.State, error) { return m.current().StateAt(nodeID) }

// Export serializes the live graph
func (m *Manager) Export() (string, error) { return m.current().Export() }

// Nodes returns every node in creation order
func (m *Manager) Nodes() []domain.HistoryNode { return m.current().Nodes() }

// Node returns node nodeID
func (m *Manager) Node(nodeID string) (domain.HistoryNode, bool) { return m.current().Node(nodeID) }

// Tree links the nodes into a navigable tree
func (m *Manager) Tree() *domain.TreeNode {
	g := m.current()
	return domain.BuildTree(g.Nodes(), g.Root(), g.Current())
}

// Interaction returns the record that produced nodeID. The root has none.
func (m *Manager) Interaction(nodeID string) (domain.Interaction, bool) {
	raw, ok := m.current().Args(nodeID)
	if !ok || len(raw) == 0 {
		return domain.Interaction{}, false
	}
	var rec domain.Interaction
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Interaction{}, false
	}
	return rec, true
}

// SavedGraph returns the export currently held by the metadata store
func (m *Manager) SavedGraph(ctx context.Context) (string, bool, error) {
	return m.store.Get(ctx, m.entityID, ports.GraphKey)
}

// Baseline returns the entity's persisted pristine specification
func (m *Manager) Baseline(ctx context.Context) (domain.Spec, bool, error) {
	raw, ok, err := m.store.Get(ctx, m.entityID, ports.BaselineKey)
	if err != nil || !ok {
		return nil, false, err
	}
	spec, err := domain.ParseSpec([]byte(raw))
	if err != nil {
		return nil, false, err
	}
	return spec, true, nil
}

// SaveBaseline persists the entity's pristine specification
func (m *Manager) SaveBaseline(ctx context.Context, spec domain.Spec) error {
	raw, err := spec.JSON()
	if err != nil {
		return err
	}
	return m.store.Set(ctx, m.entityID, ports.BaselineKey, string(raw))
}

// IsNotFound reports whether err is a lookup failure of a node or manager
func IsNotFound(err error) bool {
	return errors.Is(err, provenance.ErrNodeNotFound) || errors.Is(err, ErrManagerNotFound)
}
