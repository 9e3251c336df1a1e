// Package bootstrap wires configuration, storage, history and
// synchronization into one Runtime shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"trailbook/internal/adapters/badgerdb"
	"trailbook/internal/adapters/filesystem"
	"trailbook/internal/adapters/headless"
	"trailbook/internal/adapters/kernel"
	"trailbook/internal/adapters/memory"
	"trailbook/internal/adapters/metrics"
	"trailbook/internal/adapters/sqlite"
	"trailbook/internal/capture"
	"trailbook/internal/config"
	"trailbook/internal/domain"
	"trailbook/internal/history"
	"trailbook/internal/ports"
	"trailbook/internal/provenance"
	"trailbook/internal/specsync"
)

// Runtime holds the long-lived collaborators of a process
type Runtime struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    ports.MetadataStore
	Index    *history.Index
	Registry *prometheus.Registry
	Observer *metrics.Observer
	Sync     *specsync.Synchronizer
	Executor *kernel.Executor
}

// New builds a Runtime from cfg. The caller owns the runtime and must Close it.
func New(cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode, err := specsync.ParseFilterMode(cfg.Filter.Mode)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	index := history.NewIndex()
	rt := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Index:    index,
		Registry: reg,
		Observer: metrics.NewObserver(reg),
		Sync: specsync.New(index, specsync.Options{
			Capture:    capture.Config{Wait: cfg.Capture.Debounce},
			FilterMode: mode,
			Logger:     logger.Named("sync"),
		}),
		Executor: kernel.NewExecutor(
			kernel.WithPython(cfg.Kernel.Python),
			kernel.WithPrelude(cfg.Kernel.Prelude),
			kernel.WithLogger(logger.Named("kernel")),
		),
	}
	logger.Debug("runtime ready",
		zap.String("driver", cfg.Store.Driver),
		zap.String("filter", string(mode)),
	)
	return rt, nil
}

// Open returns the history manager of entityID, creating it on first use
func (rt *Runtime) Open(ctx context.Context, entityID string) (*history.Manager, error) {
	if m, err := rt.Index.Lookup(entityID); err == nil {
		return m, nil
	}
	return rt.Index.Open(ctx, entityID, rt.Store, rt.managerOptions()...)
}

func (rt *Runtime) managerOptions() []history.Option {
	return []history.Option{
		history.WithLogger(rt.Logger.Named("history")),
		history.WithObserver(rt.Observer),
		history.WithGraphOptions(
			provenance.WithCheckpointEvery(rt.Config.Graph.CheckpointEvery),
			provenance.WithCacheSize(rt.Config.Graph.CacheSize),
		),
	}
}

// Bind opens entityID and binds it to an in-process rendering handle
// holding the entity's baseline
func (rt *Runtime) Bind(ctx context.Context, entityID string) (*specsync.Binding, *headless.Handle, error) {
	m, err := rt.Open(ctx, entityID)
	if err != nil {
		return nil, nil, err
	}
	baseline, ok, err := m.Baseline(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("%s has no baseline specification; run init first", entityID)
	}
	handle := headless.New(baseline)
	b, err := rt.Sync.Bind(ctx, entityID, handle, baseline)
	if err != nil {
		return nil, nil, err
	}
	return b, handle, nil
}

// Close releases the synchronizer, every manager and the store
func (rt *Runtime) Close() error {
	rt.Sync.Close()
	rt.Index.Close()
	if err := rt.Store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	_ = rt.Logger.Sync()
	return nil
}

// OpenStore opens the metadata store selected by cfg
func OpenStore(cfg config.StoreConfig, logger *zap.Logger) (ports.MetadataStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil

	case config.DriverSQLite:
		s := sqlite.NewStore()
		if err := s.Open(cfg.Path); err != nil {
			return nil, err
		}
		return s, nil

	case config.DriverBadger:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(DataDir(), "badger")
		}
		bcfg := badgerdb.DefaultConfig(path)
		bcfg.Logger = logger.Named("badger")
		return badgerdb.Open(bcfg)

	case config.DriverFilesystem:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(DataDir(), "entities")
		}
		return filesystem.NewStore(path), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// DataDir is the trailbook directory under the XDG data home
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "trailbook")
}

// ReadSpec loads a specification document from a JSON file, "-" reading stdin
func ReadSpec(path string) (domain.Spec, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read spec: %w", err)
	}
	spec, err := domain.ParseSpec(data)
	if err != nil {
		return nil, err
	}
	if spec == nil {
		return nil, errors.New("spec must be a JSON object")
	}
	return spec, nil
}
