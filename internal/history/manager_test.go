package history

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbook/internal/adapters/memory"
	"trailbook/internal/domain"
	"trailbook/internal/ports"
	"trailbook/internal/provenance"
)

func brush(lo, hi float64) domain.Interaction {
	return domain.Interaction{
		ID:   uuid.NewString(),
		Kind: domain.KindSelectionInterval,
		Name: "brush",
		Path: "/selection/brush",
		Params: &domain.IntervalParams{
			Selection: map[string]domain.Range{"x": {lo, hi}},
		},
		Spec: domain.Spec{"mark": "point"},
	}
}

func newTestManager(t *testing.T) (*Manager, *memory.Store, *Index) {
	t.Helper()
	store := memory.NewStore()
	index := NewIndex()
	m, err := NewManager(context.Background(), "cell-1", store, index)
	require.NoError(t, err)
	t.Cleanup(m.Dispose)
	return m, store, index
}

func TestManagerPersistsAndRegisters(t *testing.T) {
	ctx := context.Background()
	m, store, index := newTestManager(t)

	saved, ok, err := store.Get(ctx, "cell-1", ports.GraphKey)
	require.NoError(t, err)
	require.True(t, ok, "graph persisted on creation")

	id, err := m.AddInteraction(ctx, brush(0, 1), "")
	require.NoError(t, err)

	after, _, err := store.Get(ctx, "cell-1", ports.GraphKey)
	require.NoError(t, err)
	assert.NotEqual(t, saved, after)
	live, err := m.Export()
	require.NoError(t, err)
	assert.Equal(t, live, after)

	found, err := index.Lookup("cell-1")
	require.NoError(t, err)
	assert.Same(t, m, found)

	n, ok := m.Node(id)
	require.True(t, ok)
	assert.Equal(t, "selection-interval", n.Label)

	rec, ok := m.Interaction(id)
	require.True(t, ok)
	assert.Equal(t, "brush", rec.Name)
	_, ok = m.Interaction(m.Root())
	assert.False(t, ok)
}

func TestManagerLoadsSavedGraph(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newTestManager(t)
	_, err := m.AddInteraction(ctx, brush(0, 1), "Brush selection")
	require.NoError(t, err)
	m.Dispose()

	reopened, err := NewManager(ctx, "cell-1", store, NewIndex())
	require.NoError(t, err)
	defer reopened.Dispose()

	assert.Equal(t, m.Root(), reopened.Root())
	assert.Equal(t, m.Current(), reopened.Current())
	assert.False(t, reopened.HasOnlyRoot())
}

func TestManagerRejectsCorruptSavedGraph(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Set(ctx, "cell-1", ports.GraphKey, `{"version":1}`))
	index := NewIndex()

	_, err := NewManager(ctx, "cell-1", store, index)
	assert.ErrorIs(t, err, provenance.ErrMalformedExport)
	assert.Equal(t, 0, index.Len())
}

func TestManagerSignals(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	var order []string
	var changes []CurrentChange
	var instances []InstanceChange
	subA := m.OnCurrentChange(func(c CurrentChange) {
		order = append(order, "a")
		changes = append(changes, c)
	})
	defer subA.Unsubscribe()
	subB := m.OnCurrentChange(func(CurrentChange) { order = append(order, "b") })
	defer subB.Unsubscribe()
	subI := m.OnChanged(func(c InstanceChange) { instances = append(instances, c) })
	defer subI.Unsubscribe()

	id, err := m.AddInteraction(ctx, brush(0, 1), "")
	require.NoError(t, err)
	require.NoError(t, m.To(ctx, m.Root()))

	assert.Equal(t, []string{"a", "b", "a", "b"}, order)
	require.Len(t, changes, 2)
	assert.Equal(t, id, changes[0].NodeID)
	assert.Len(t, changes[0].State.Interactions, 1)
	assert.Equal(t, m.Root(), changes[1].NodeID)
	assert.Empty(t, changes[1].State.Interactions)
	assert.Empty(t, instances)

	require.NoError(t, m.Reset(ctx))
	require.Len(t, instances, 1)
	assert.Equal(t, m.Root(), instances[0].RootID)
}

func TestManagerToUnknownNode(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	id, err := m.AddInteraction(ctx, brush(0, 1), "")
	require.NoError(t, err)

	fired := 0
	sub := m.OnCurrentChange(func(CurrentChange) { fired++ })
	defer sub.Unsubscribe()

	err = m.To(ctx, "missing")
	assert.ErrorIs(t, err, provenance.ErrNodeNotFound)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, id, m.Current())
	assert.Equal(t, 0, fired)
}

func TestManagerReset(t *testing.T) {
	ctx := context.Background()
	m, store, index := newTestManager(t)
	oldRoot := m.Root()
	for i := 0; i < 3; i++ {
		_, err := m.AddInteraction(ctx, brush(float64(i), float64(i+1)), "")
		require.NoError(t, err)
	}

	require.NoError(t, m.Reset(ctx))

	assert.True(t, m.HasOnlyRoot())
	assert.Equal(t, m.Root(), m.Current())
	assert.NotEqual(t, oldRoot, m.Root())
	state, err := m.State()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultState(), state)

	saved, _, err := store.Get(ctx, "cell-1", ports.GraphKey)
	require.NoError(t, err)
	live, _ := m.Export()
	assert.Equal(t, live, saved, "reset overwrites the persisted export")

	found, err := index.Lookup("cell-1")
	require.NoError(t, err)
	assert.Same(t, m, found)
}

func TestManagerReload(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newTestManager(t)
	_, err := m.AddInteraction(ctx, brush(0, 1), "")
	require.NoError(t, err)
	saved, _, _ := store.Get(ctx, "cell-1", ports.GraphKey)

	store.FailWrites(errors.New("disk full"))
	_, err = m.AddInteraction(ctx, brush(1, 2), "")
	assert.ErrorIs(t, err, ErrPersist)
	store.FailWrites(nil)

	state, _ := m.State()
	assert.Len(t, state.Interactions, 2, "node kept in memory when persisting fails")

	require.NoError(t, m.Reload(ctx))
	state, _ = m.State()
	assert.Len(t, state.Interactions, 1)
	live, _ := m.Export()
	assert.Equal(t, saved, live)

	require.NoError(t, store.Set(ctx, "cell-1", ports.GraphKey, "not a graph"))
	assert.ErrorIs(t, m.Reload(ctx), provenance.ErrMalformedExport)
	state, _ = m.State()
	assert.Len(t, state.Interactions, 1, "graph kept when reload fails")
}

func TestManagerUndoRedo(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	assert.ErrorIs(t, m.Undo(ctx), ErrAtRoot)
	assert.ErrorIs(t, m.Redo(ctx), ErrAtLatest)

	first, err := m.AddInteraction(ctx, brush(0, 1), "")
	require.NoError(t, err)
	require.NoError(t, m.To(ctx, m.Root()))
	second, err := m.AddInteraction(ctx, brush(2, 3), "")
	require.NoError(t, err)

	require.NoError(t, m.Undo(ctx))
	assert.True(t, m.IsAtRoot())
	require.NoError(t, m.Redo(ctx))
	assert.Equal(t, second, m.Current(), "redo follows the newest branch")
	assert.NotEqual(t, first, m.Current())
}

func TestManagerValidation(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	tests := []struct {
		name string
		rec  domain.Interaction
	}{
		{name: "missing id", rec: domain.Interaction{Kind: domain.KindSelectionAdd}},
		{name: "non-uuid id", rec: domain.Interaction{ID: "abc", Kind: domain.KindSelectionAdd}},
		{name: "brush without params", rec: domain.Interaction{ID: uuid.NewString(), Kind: domain.KindSelectionInterval}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.AddInteraction(ctx, tt.rec, "")
			assert.Error(t, err)
			assert.True(t, m.HasOnlyRoot())
		})
	}

	_, err := m.AddInteraction(ctx, domain.Interaction{ID: uuid.NewString(), Kind: "lasso"}, "")
	assert.ErrorIs(t, err, provenance.ErrUnknownKind)
}

func TestManagerSetMessage(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	_, err := m.SetMessage(ctx, "Goodbye")
	require.NoError(t, err)

	state, err := m.State()
	require.NoError(t, err)
	assert.Equal(t, "Goodbye", state.Msg)
	assert.Equal(t, domain.KindTest, state.Interactions[0].Kind)
}

func TestManagerDispose(t *testing.T) {
	ctx := context.Background()
	m, _, index := newTestManager(t)
	fired := 0
	m.OnCurrentChange(func(CurrentChange) { fired++ })

	m.Dispose()
	m.Dispose()

	assert.True(t, m.Disposed())
	_, err := index.Lookup("cell-1")
	assert.ErrorIs(t, err, ErrManagerNotFound)
	_, err = m.AddInteraction(ctx, brush(0, 1), "")
	assert.ErrorIs(t, err, ErrDisposed)
	assert.ErrorIs(t, m.Reset(ctx), ErrDisposed)
	assert.Equal(t, 0, fired)
}

func TestManagerDisposeAnnounces(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	index := NewIndex()
	t.Cleanup(index.Close)

	first, err := index.Open(ctx, "cell-1", store)
	require.NoError(t, err)
	var got []string
	first.OnDisposed(func(id string) { got = append(got, id) })

	_, err = NewManager(ctx, "cell-1", store, index)
	require.NoError(t, err)
	first.Dispose()

	assert.Equal(t, []string{"cell-1"}, got, "replacement announces the disposal once")
}

// resetOnAdd resets the manager from inside the first InteractionAdded
// callback, landing a swap between the apply and its announcement
type resetOnAdd struct {
	ports.NopObserver
	m    *Manager
	done bool
}

func (o *resetOnAdd) InteractionAdded(string, domain.Kind) {
	if o.done {
		return
	}
	o.done = true
	_ = o.m.Reset(context.Background())
}

func TestManagerAddInteractionSupersededBySwap(t *testing.T) {
	ctx := context.Background()
	obs := &resetOnAdd{}
	m, err := NewManager(ctx, "cell-1", memory.NewStore(), NewIndex(), WithObserver(obs))
	require.NoError(t, err)
	t.Cleanup(m.Dispose)
	obs.m = m

	var emitted []CurrentChange
	m.OnCurrentChange(func(c CurrentChange) { emitted = append(emitted, c) })

	id, err := m.AddInteraction(ctx, brush(0, 1), "")
	require.ErrorIs(t, err, ErrSuperseded)
	assert.NotEmpty(t, id)

	_, ok := m.Node(id)
	assert.False(t, ok, "node belongs to the discarded graph")
	require.NotEmpty(t, emitted)
	last := emitted[len(emitted)-1]
	assert.Equal(t, m.Current(), last.NodeID, "no stale state announced after the swap")
	assert.Empty(t, last.State.Interactions)
	assert.True(t, m.HasOnlyRoot())
}

func TestManagerConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newTestManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = m.AddInteraction(ctx, brush(float64(i), float64(i+1)), "")
		}(i)
		go func() {
			defer wg.Done()
			_ = m.Reset(ctx)
		}()
	}
	wg.Wait()

	saved, _, err := store.Get(ctx, "cell-1", ports.GraphKey)
	require.NoError(t, err)
	live, err := m.Export()
	require.NoError(t, err)
	assert.Equal(t, live, saved, "store holds the live graph")
	_, ok := m.Node(m.Current())
	assert.True(t, ok)
}

func TestIndexOpenAndReplace(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	index := NewIndex()

	first, err := index.Open(ctx, "cell-1", store)
	require.NoError(t, err)
	again, err := index.Open(ctx, "cell-1", store)
	require.NoError(t, err)
	assert.Same(t, first, again)

	replacement, err := NewManager(ctx, "cell-1", store, index)
	require.NoError(t, err)
	assert.True(t, first.Disposed(), "replaced manager is disposed")
	found, err := index.Lookup("cell-1")
	require.NoError(t, err)
	assert.Same(t, replacement, found)

	_, err = index.Open(ctx, "cell-2", store)
	require.NoError(t, err)
	assert.Equal(t, []string{"cell-1", "cell-2"}, index.Entities())

	index.Close()
	assert.Equal(t, 0, index.Len())
	assert.True(t, replacement.Disposed())
}
