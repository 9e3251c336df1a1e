package ports

import "context"

// Metadata keys used by the history engine
const (
	// GraphKey holds the serialized history graph of an entity
	GraphKey = "trrack_graph"
	// BaselineKey holds the pristine specification of an entity
	BaselineKey = "original_spec"
)

// Keys lists every metadata key the history engine writes
var Keys = []string{GraphKey, BaselineKey}

// MetadataStore is a durable per-entity key/value store.
// Get reports ok=false when the key is absent; that is not an error.
type MetadataStore interface {
	Get(ctx context.Context, entityID, key string) (value string, ok bool, err error)
	Set(ctx context.Context, entityID, key, value string) error
	Delete(ctx context.Context, entityID, key string) error

	// Entities lists every entity with at least one key, sorted
	Entities(ctx context.Context) ([]string, error)

	// DeleteEntity removes every key of an entity atomically
	DeleteEntity(ctx context.Context, entityID string) error

	Close() error
}
