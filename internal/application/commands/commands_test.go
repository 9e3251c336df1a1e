package commands

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"trailbook/internal/adapters/memory"
	"trailbook/internal/application"
	"trailbook/internal/domain"
	"trailbook/internal/history"
	"trailbook/internal/ports"
)

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

type fixture struct {
	store   *memory.Store
	index   *history.Index
	manager *history.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	index := history.NewIndex()
	m, err := history.NewManager(context.Background(), "cell-1", store, index)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(m.Dispose)
	return &fixture{store: store, index: index, manager: m}
}

func brushSpec() domain.Spec {
	return domain.Spec{
		"mark": "point",
		"selection": map[string]any{
			"brush": map[string]any{"type": "interval"},
		},
		"encoding": map[string]any{
			"x": map[string]any{"field": "x", "type": "quantitative"},
		},
	}
}

// brush records an interval selection through BrushCommand
func (f *fixture) brush(t *testing.T, lo, hi float64) string {
	t.Helper()
	res, err := NewBrushCommand(f.manager, "brush", map[string]domain.Range{"x": {lo, hi}}).Execute(context.Background())
	if err != nil {
		t.Fatalf("brush failed: %v", err)
	}
	return res.NodeID
}

func (f *fixture) initBaseline(t *testing.T) {
	t.Helper()
	if _, err := NewInitCommand(f.manager, brushSpec(), false).Execute(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
}

type fakeExecution struct {
	done chan struct{}
}

func (e *fakeExecution) Done() <-chan struct{} { return e.done }

func (e *fakeExecution) Wait(ctx context.Context) (ports.ExecResult, error) {
	select {
	case <-e.done:
		return ports.ExecResult{Stdout: "[]"}, nil
	case <-ctx.Done():
		return ports.ExecResult{}, ctx.Err()
	}
}

type fakeExecutor struct {
	mu      sync.Mutex
	sources []string
	opts    []ports.ExecOptions
	fail    error
}

func (e *fakeExecutor) Execute(_ context.Context, source string, opts ports.ExecOptions) (ports.Execution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail != nil {
		return nil, e.fail
	}
	e.sources = append(e.sources, source)
	e.opts = append(e.opts, opts)
	done := make(chan struct{})
	close(done)
	return &fakeExecution{done: done}, nil
}

func (e *fakeExecutor) IsAvailable() bool { return true }

func TestNavigateCommand(t *testing.T) {
	f := newFixture(t)
	f.initBaseline(t)
	first := f.brush(t, 0, 1)
	second := f.brush(t, 2, 3)

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr error
	}{
		{name: "full id", ref: first, want: first},
		{name: "unique prefix", ref: second[:12], want: second},
		{name: "root keyword", ref: "root", want: f.manager.Root()},
		{name: "unknown id", ref: "does-not-exist", wantErr: application.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewNavigateCommand(f.manager, tt.ref).Execute(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.NodeID != tt.want || f.manager.Current() != tt.want {
				t.Errorf("current = %s, want %s", f.manager.Current(), tt.want)
			}
		})
	}
}

func TestNavigateCommand_Validate(t *testing.T) {
	err := NewNavigateCommand(nil, "  ").Validate()
	var valErr *application.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !contains(err.Error(), "node ID is required") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestUndoRedoCommands(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initBaseline(t)

	_, err := NewUndoCommand(f.manager).Execute(ctx)
	if !errors.Is(err, application.ErrInvalidOperation) || !errors.Is(err, history.ErrAtRoot) {
		t.Fatalf("undo at root: expected navigation error, got %v", err)
	}

	first := f.brush(t, 0, 1)
	second := f.brush(t, 2, 3)

	res, err := NewUndoCommand(f.manager).Execute(ctx)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if res.NodeID != first {
		t.Errorf("undo moved to %s, want %s", res.NodeID, first)
	}
	if !contains(res.Message, "Undid to") {
		t.Errorf("unexpected message %q", res.Message)
	}

	res, err = NewRedoCommand(f.manager).Execute(ctx)
	if err != nil {
		t.Fatalf("redo failed: %v", err)
	}
	if res.NodeID != second {
		t.Errorf("redo moved to %s, want %s", res.NodeID, second)
	}

	_, err = NewRedoCommand(f.manager).Execute(ctx)
	if !errors.Is(err, history.ErrAtLatest) {
		t.Errorf("redo at latest: expected ErrAtLatest, got %v", err)
	}
}

func TestResetCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initBaseline(t)
	f.brush(t, 0, 1)

	res, err := NewResetCommand(f.manager, false).Execute(ctx)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if res.Nodes != 1 {
		t.Errorf("expected only the root after reset, got %d nodes", res.Nodes)
	}
	if f.manager.Current() != f.manager.Root() {
		t.Errorf("current should be the root after reset")
	}
}

func TestResetCommand_Reload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initBaseline(t)
	saved := f.brush(t, 0, 1)

	f.store.FailWrites(errors.New("disk full"))
	if _, err := NewMessageCommand(f.manager, "unsaved").Execute(ctx); !errors.Is(err, history.ErrPersist) {
		t.Fatalf("expected persist error, got %v", err)
	}
	f.store.FailWrites(nil)

	res, err := NewResetCommand(f.manager, true).Execute(ctx)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if res.Nodes != 2 {
		t.Errorf("expected the persisted 2 nodes, got %d", res.Nodes)
	}
	if f.manager.Current() != saved {
		t.Errorf("current = %s, want persisted %s", f.manager.Current(), saved)
	}
}

func TestExportImportCommands(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t)
	src.initBaseline(t)
	src.brush(t, 0, 1)
	last := src.brush(t, 4, 5)

	exp, err := NewExportCommand(src.manager).Execute(ctx)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if exp.Nodes != 3 {
		t.Errorf("expected 3 nodes, got %d", exp.Nodes)
	}

	dst := newFixture(t)
	res, err := NewImportCommand(dst.manager, exp.Export).Execute(ctx)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if res.Nodes != 3 || res.CurrentID != last || res.RootID != src.manager.Root() {
		t.Errorf("unexpected import result %+v", res)
	}

	if _, err := NewImportCommand(dst.manager, "").Execute(ctx); err == nil {
		t.Error("expected validation error for empty export")
	}
	if _, err := NewImportCommand(dst.manager, `{"version":1}`).Execute(ctx); err == nil {
		t.Error("expected error for malformed export")
	}
	if dst.manager.Current() != last {
		t.Error("failed import must keep the previous graph")
	}
}

func TestListEntitiesCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initBaseline(t)
	if err := f.store.Set(ctx, "cell-0", ports.GraphKey, "{}"); err != nil {
		t.Fatal(err)
	}

	got, err := NewListEntitiesCommand(f.store).Execute(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := []EntitySummary{
		{ID: "cell-0", HasHistory: true},
		{ID: "cell-1", HasHistory: true, HasBaseline: true},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entities, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entity %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTreeCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initBaseline(t)
	first := f.brush(t, 0, 1)
	if _, err := NewUndoCommand(f.manager).Execute(ctx); err != nil {
		t.Fatal(err)
	}
	branch := f.brush(t, 2, 3)

	res, err := NewTreeCommand(f.manager).Execute(ctx)
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if res.Nodes != 3 {
		t.Errorf("expected 3 nodes, got %d", res.Nodes)
	}
	if len(res.Root.Children) != 2 {
		t.Fatalf("expected the root to branch, got %d children", len(res.Root.Children))
	}
	if res.Root.Children[0].ID != first || res.Root.Children[1].ID != branch {
		t.Errorf("children out of creation order")
	}
	if n := res.Root.Find(branch); n == nil || !n.IsCurrent {
		t.Errorf("branch should be current")
	}
}

func TestShowCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initBaseline(t)
	first := f.brush(t, 0, 1)
	f.brush(t, 2, 3)

	res, err := NewShowCommand(f.manager, first).Execute(ctx)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if res.IsCurrent {
		t.Error("first brush is not current")
	}
	if len(res.State.Interactions) != 1 {
		t.Errorf("expected 1 interaction at first node, got %d", len(res.State.Interactions))
	}
	if res.Interaction == nil || res.Interaction.Params.Selection["x"] != (domain.Range{0, 1}) {
		t.Errorf("unexpected interaction %+v", res.Interaction)
	}

	res, err = NewShowCommand(f.manager, "").Execute(ctx)
	if err != nil {
		t.Fatalf("show current failed: %v", err)
	}
	if !res.IsCurrent || len(res.State.Interactions) != 2 {
		t.Errorf("unexpected current node %+v", res.Node)
	}

	res, err = NewShowCommand(f.manager, "root").Execute(ctx)
	if err != nil {
		t.Fatalf("show root failed: %v", err)
	}
	if res.Interaction != nil || res.State.Msg != domain.DefaultMessage {
		t.Errorf("root should carry the default state")
	}
}

func TestQueryCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initBaseline(t)

	res, err := NewQueryCommand(f.manager, "").Execute(ctx)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if res.Query != "" || res.Brushes != 0 {
		t.Errorf("expected empty query at root, got %+v", res)
	}

	f.brush(t, 0.12345, 1.5)
	res, err = NewQueryCommand(f.manager, "").Execute(ctx)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if res.Query != "(0.123 <= x <= 1.5)" {
		t.Errorf("unexpected query %q", res.Query)
	}
}

func TestExtractCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initBaseline(t)
	exec := &fakeExecutor{}

	_, err := NewExtractCommand(f.manager, exec, "df", "", true).Execute(ctx)
	if !errors.Is(err, application.ErrNothingToExtract) {
		t.Fatalf("expected ErrNothingToExtract, got %v", err)
	}

	f.brush(t, 1, 2)
	res, err := NewExtractCommand(f.manager, exec, "df", "", true).Execute(ctx)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	want := `print(df.query("(1 <= x <= 2)").to_json(orient="records"))`
	if res.Source != want {
		t.Errorf("source = %s, want %s", res.Source, want)
	}
	if len(exec.opts) != 1 || !exec.opts[0].WithPandas || !exec.opts[0].WithJSON || !exec.opts[0].WithPrelude {
		t.Errorf("unexpected exec options %+v", exec.opts)
	}
	select {
	case <-res.Execution.Done():
	default:
		t.Error("execution should be observable through Done")
	}
}

func TestExtractCommand_Validate(t *testing.T) {
	tests := []struct {
		name      string
		dataframe string
		wantErr   bool
	}{
		{name: "identifier", dataframe: "cars_df", wantErr: false},
		{name: "empty", dataframe: "", wantErr: true},
		{name: "expression", dataframe: "df; import os", wantErr: true},
		{name: "leading digit", dataframe: "1df", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&ExtractCommand{Dataframe: tt.dataframe}).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBrushCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := NewBrushCommand(f.manager, "brush", map[string]domain.Range{"x": {0, 1}}).Execute(ctx)
	if !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("brush without baseline: expected ErrNotFound, got %v", err)
	}

	f.initBaseline(t)
	_, err = NewBrushCommand(f.manager, "zoom", map[string]domain.Range{"x": {0, 1}}).Execute(ctx)
	if !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("unknown selection: expected ErrNotFound, got %v", err)
	}

	id := f.brush(t, 3, 4)
	rec, ok := f.manager.Interaction(id)
	if !ok {
		t.Fatal("brush interaction not recorded")
	}
	init, ok := (domain.Selection{Name: "brush", Pointer: "/selection/brush"}).Init(rec.Spec)
	if !ok || init["x"] != (domain.Range{3, 4}) {
		t.Errorf("brushed spec init = %v", init)
	}
	if n, _ := f.manager.Node(id); n.Label != "Brush selection" {
		t.Errorf("label = %s", n.Label)
	}
}

func TestBrushCommand_Validate(t *testing.T) {
	tests := []struct {
		name      string
		selection string
		ranges    map[string]domain.Range
		errMsg    string
	}{
		{name: "valid", selection: "brush", ranges: map[string]domain.Range{"x": {0, 1}}},
		{name: "no selection", selection: "", ranges: map[string]domain.Range{"x": {0, 1}}, errMsg: "selection name is required"},
		{name: "no ranges", selection: "brush", errMsg: "at least one field range"},
		{name: "inverted", selection: "brush", ranges: map[string]domain.Range{"x": {2, 1}}, errMsg: "inverted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBrushCommand(nil, tt.selection, tt.ranges).Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

type fakeFilterer struct {
	id      string
	changed bool
	err     error
}

func (f fakeFilterer) Filter(context.Context) (string, bool, error) {
	return f.id, f.changed, f.err
}

func TestFilterCommand(t *testing.T) {
	tests := []struct {
		name     string
		filterer fakeFilterer
		want     FilterResult
		wantErr  bool
	}{
		{name: "applied", filterer: fakeFilterer{id: "n1", changed: true}, want: FilterResult{NodeID: "n1", Changed: true, Message: "Filter applied"}},
		{name: "noop", filterer: fakeFilterer{}, want: FilterResult{Message: "Nothing to filter"}},
		{name: "error", filterer: fakeFilterer{err: errors.New("boom")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFilterCommand(tt.filterer).Execute(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *got != tt.want {
				t.Errorf("got %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestMessageCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := NewMessageCommand(f.manager, " ").Execute(ctx); err == nil {
		t.Fatal("expected validation error")
	}
	res, err := NewMessageCommand(f.manager, "checkpoint").Execute(ctx)
	if err != nil {
		t.Fatalf("message failed: %v", err)
	}
	state, err := f.manager.StateAt(res.NodeID)
	if err != nil {
		t.Fatal(err)
	}
	if state.Msg != "checkpoint" {
		t.Errorf("msg = %s", state.Msg)
	}
}

func TestRemoveEntityCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initBaseline(t)

	if _, err := NewRemoveEntityCommand(f.store, f.index, "cell-9").Execute(ctx); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := NewRemoveEntityCommand(f.store, f.index, "cell-1").Execute(ctx); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !f.manager.Disposed() {
		t.Error("open manager should be disposed")
	}
	ids, _ := f.store.Entities(ctx)
	if len(ids) != 0 {
		t.Errorf("entity still stored: %v", ids)
	}
}

func TestInitCommand(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := NewInitCommand(f.manager, brushSpec(), false).Execute(ctx)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if len(res.Selections) != 1 || res.Selections[0].Name != "brush" {
		t.Errorf("unexpected selections %+v", res.Selections)
	}

	_, err = NewInitCommand(f.manager, domain.Spec{"mark": "bar"}, false).Execute(ctx)
	if !errors.Is(err, application.ErrInvalidOperation) {
		t.Fatalf("expected ErrInvalidOperation, got %v", err)
	}

	if _, err := NewInitCommand(f.manager, domain.Spec{"mark": "bar"}, true).Execute(ctx); err != nil {
		t.Fatalf("forced init failed: %v", err)
	}
	baseline, _, _ := f.manager.Baseline(ctx)
	if baseline["mark"] != "bar" {
		t.Errorf("baseline not replaced: %v", baseline)
	}

	if err := NewInitCommand(f.manager, nil, false).Validate(); err == nil {
		t.Error("expected validation error for empty spec")
	}
}

func TestSpecAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.initBaseline(t)
	id := f.brush(t, 1, 2)

	spec, err := SpecAt(ctx, f.manager, f.manager.Root())
	if err != nil {
		t.Fatalf("SpecAt root failed: %v", err)
	}
	if !domain.Equal(spec, brushSpec()) {
		t.Errorf("root should show the baseline, got %v", spec)
	}

	spec, err = SpecAt(ctx, f.manager, id)
	if err != nil {
		t.Fatalf("SpecAt brush failed: %v", err)
	}
	if _, ok := spec.Lookup("/selection/brush/init/x"); !ok {
		t.Errorf("brushed node should show its init, got %v", spec)
	}
}
