// Package badgerdb provides a MetadataStore backed by an embedded BadgerDB
package badgerdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"trailbook/internal/ports"
)

// sep separates the entity id from the key; entity ids never contain it
const sep = 0x00

// Config holds configuration for a BadgerDB store
type Config struct {
	// Path is the database directory; ignored when InMemory is true
	Path     string
	InMemory bool

	SyncWrites bool

	// GCInterval is how often value log GC runs; 0 disables it
	GCInterval     time.Duration
	GCDiscardRatio float64

	Logger *zap.Logger
}

// DefaultConfig returns production defaults for a store at path
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts zap to BadgerDB's Logger interface
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...any)   { l.logger.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...any) { l.logger.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...any)    { l.logger.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...any)   { l.logger.Debugf(format, args...) }

// Store implements ports.MetadataStore using BadgerDB
type Store struct {
	db   *badger.DB
	gc   *gcRunner
	path string
}

// Ensure Store implements MetadataStore
var _ ports.MetadataStore = (*Store)(nil)

// Open opens the store described by cfg
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		path := cfg.Path
		if len(path) > 0 && path[0] == '~' {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			path = filepath.Join(home, path[1:])
		}
		if err := os.MkdirAll(path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", path, err)
		}
		cfg.Path = path
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(badgerLogger{logger: cfg.Logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	s := &Store{db: db, path: cfg.Path}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		logger := cfg.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		s.gc = newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, logger)
		s.gc.start()
	}
	return s, nil
}

// Path returns the database directory, empty for in-memory stores
func (s *Store) Path() string {
	return s.path
}

// Close stops garbage collection and closes the database
func (s *Store) Close() error {
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}

func itemKey(entityID, key string) []byte {
	b := make([]byte, 0, len(entityID)+len(key)+1)
	b = append(b, entityID...)
	b = append(b, sep)
	return append(b, key...)
}

func entityPrefix(entityID string) []byte {
	return append([]byte(entityID), sep)
}

func (s *Store) Get(ctx context.Context, entityID, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(itemKey(entityID, key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s/%s: %w", entityID, key, err)
	}
	return string(value), true, nil
}

func (s *Store) Set(ctx context.Context, entityID, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(entityID, key), []byte(value))
	})
}

func (s *Store) Delete(ctx context.Context, entityID, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(itemKey(entityID, key))
	})
}

// Entities lists entity ids in key order, which is sorted order
func (s *Store) Entities(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().Key()
			i := bytes.IndexByte(k, sep)
			if i < 0 {
				continue
			}
			id := string(k[:i])
			if len(ids) == 0 || ids[len(ids)-1] != id {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

// DeleteEntity removes every key of an entity in one transaction
func (s *Store) DeleteEntity(ctx context.Context, entityID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := entityPrefix(entityID)
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
