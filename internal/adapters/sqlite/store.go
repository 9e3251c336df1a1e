// Package sqlite provides a MetadataStore backed by a SQLite database
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"trailbook/internal/ports"
)

const schemaVersion = "1"

// Store implements ports.MetadataStore using SQLite
type Store struct {
	db     *sql.DB
	dbPath string
}

// Ensure Store implements MetadataStore
var _ ports.MetadataStore = (*Store)(nil)

// NewStore creates a new SQLite store
func NewStore() *Store {
	return &Store{}
}

// Open opens (creating if needed) the database at dbPath. An empty path
// uses the default location under the XDG data directory.
func (s *Store) Open(dbPath string) error {
	if dbPath == "" {
		dbPath = DefaultPath()
	}
	// Expand ~ in path
	if len(dbPath) > 0 && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}
	s.dbPath = dbPath

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	// WAL lets readers proceed while a history is being persisted
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	// Performance pragmas + schema in single batch (reduces round-trips)
	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS metadata (
			entity_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
			PRIMARY KEY (entity_id, key)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return fmt.Errorf("failed to update metadata: %w", err)
	}
	return nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SchemaVersion returns the schema version recorded in the database
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	var version string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	return version, err
}

// DefaultPath returns the database path under the XDG data directory
func DefaultPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "trailbook", "metadata.db")
}

// Get retrieves the value of key for an entity
func (s *Store) Get(ctx context.Context, entityID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM metadata WHERE entity_id = ? AND key = ?
	`, entityID, key).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s/%s: %w", entityID, key, err)
	}
	return value, true, nil
}

// Set inserts or updates the value of key for an entity
func (s *Store) Set(ctx context.Context, entityID, key, value string) error {
	return s.withTx(ctx, func(tx *storeTx) error {
		return tx.upsert(ctx, entityID, key, value)
	})
}

// Delete removes a single key
func (s *Store) Delete(ctx context.Context, entityID, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE entity_id = ? AND key = ?`, entityID, key)
	return err
}

// Entities lists every entity with at least one key
func (s *Store) Entities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT entity_id FROM metadata ORDER BY entity_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteEntity removes every key of an entity in one transaction
func (s *Store) DeleteEntity(ctx context.Context, entityID string) error {
	return s.withTx(ctx, func(tx *storeTx) error {
		return tx.deleteEntity(ctx, entityID)
	})
}

// SetAll writes several keys of an entity atomically
func (s *Store) SetAll(ctx context.Context, entityID string, values map[string]string) error {
	return s.withTx(ctx, func(tx *storeTx) error {
		for key, value := range values {
			if err := tx.upsert(ctx, entityID, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) withTx(ctx context.Context, fn func(*storeTx) error) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
