package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbook/internal/adapters/badgerdb"
	"trailbook/internal/adapters/filesystem"
	"trailbook/internal/adapters/memory"
	"trailbook/internal/adapters/sqlite"
	"trailbook/internal/config"
	"trailbook/internal/domain"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TRAILBOOK_CONFIG", "")
	t.Setenv("TRAILBOOK_STORE_DRIVER", driver)
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestOpenStoreDrivers(t *testing.T) {
	tests := []struct {
		driver string
		path   string
		check  func(t *testing.T, v any)
	}{
		{driver: config.DriverMemory, check: func(t *testing.T, v any) { assert.IsType(t, &memory.Store{}, v) }},
		{driver: config.DriverSQLite, path: "meta.db", check: func(t *testing.T, v any) { assert.IsType(t, &sqlite.Store{}, v) }},
		{driver: config.DriverBadger, path: "badger", check: func(t *testing.T, v any) { assert.IsType(t, &badgerdb.Store{}, v) }},
		{driver: config.DriverFilesystem, path: "fs", check: func(t *testing.T, v any) { assert.IsType(t, &filesystem.Store{}, v) }},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := config.StoreConfig{Driver: tt.driver}
			if tt.path != "" {
				cfg.Path = filepath.Join(t.TempDir(), tt.path)
			}
			store, err := OpenStore(cfg, nil)
			require.NoError(t, err)
			defer store.Close()
			tt.check(t, store)

			ctx := context.Background()
			require.NoError(t, store.Set(ctx, "cell-1", "k", "v"))
			v, ok, err := store.Get(ctx, "cell-1", "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v", v)
		})
	}

	_, err := OpenStore(config.StoreConfig{Driver: "postgres"}, nil)
	assert.Error(t, err)
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	assert.Equal(t, "/data/trailbook", DataDir())
}

func TestRuntimeOpenAndObserve(t *testing.T) {
	ctx := context.Background()
	rt, err := New(testConfig(t, config.DriverMemory), nil)
	require.NoError(t, err)
	defer rt.Close()

	m, err := rt.Open(ctx, "cell-1")
	require.NoError(t, err)
	again, err := rt.Open(ctx, "cell-1")
	require.NoError(t, err)
	assert.Same(t, m, again, "open reuses the live manager")

	_, err = m.SetMessage(ctx, "hi")
	require.NoError(t, err)
	n, err := testutil.GatherAndCount(rt.Registry, "trailbook_interactions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRuntimeBind(t *testing.T) {
	ctx := context.Background()
	rt, err := New(testConfig(t, config.DriverMemory), nil)
	require.NoError(t, err)
	defer rt.Close()

	_, _, err = rt.Bind(ctx, "cell-1")
	require.Error(t, err, "bind needs a baseline")

	m, err := rt.Open(ctx, "cell-1")
	require.NoError(t, err)
	baseline := domain.Spec{
		"mark":      "point",
		"selection": map[string]any{"brush": map[string]any{"type": "interval"}},
	}
	require.NoError(t, m.SaveBaseline(ctx, baseline))

	b, handle, err := rt.Bind(ctx, "cell-1")
	require.NoError(t, err)
	assert.Equal(t, "cell-1", b.EntityID())
	assert.True(t, domain.Equal(baseline, handle.Spec()))
}

func TestReadSpec(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "spec.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"mark":"bar"}`), 0644))
	null := filepath.Join(dir, "null.json")
	require.NoError(t, os.WriteFile(null, []byte(`null`), 0644))

	spec, err := ReadSpec(good)
	require.NoError(t, err)
	assert.Equal(t, "bar", spec["mark"])

	_, err = ReadSpec(null)
	assert.Error(t, err)
	_, err = ReadSpec(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
