package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// storeTx groups metadata writes into one transaction
type storeTx struct {
	tx *sql.Tx
}

func (s *Store) beginTx(ctx context.Context) (*storeTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &storeTx{tx: tx}, nil
}

// upsert inserts or updates one key
func (t *storeTx) upsert(ctx context.Context, entityID, key, value string) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO metadata (entity_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (entity_id, key) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at
	`, entityID, key, value, time.Now().Unix())
	return err
}

// deleteEntity removes every key of an entity
func (t *storeTx) deleteEntity(ctx context.Context, entityID string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM metadata WHERE entity_id = ?`, entityID)
	return err
}

// Commit commits the transaction
func (t *storeTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *storeTx) Rollback() error {
	return t.tx.Rollback()
}
