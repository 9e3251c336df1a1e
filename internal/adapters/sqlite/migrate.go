package sqlite

import (
	"context"
	"fmt"
	"time"

	"trailbook/internal/domain"
	"trailbook/internal/ports"
)

// Import copies every history key of src into the database. Entities that
// already hold a graph are skipped unless overwrite is set; each entity is
// written in its own transaction.
func (s *Store) Import(ctx context.Context, src ports.MetadataStore, overwrite bool) (*domain.MigrationStats, error) {
	start := time.Now()
	stats := &domain.MigrationStats{}

	entities, err := src.Entities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list source entities: %w", err)
	}

	for _, entityID := range entities {
		if !overwrite {
			_, exists, err := s.Get(ctx, entityID, ports.GraphKey)
			if err != nil {
				return stats, err
			}
			if exists {
				stats.Skipped++
				continue
			}
		}

		values := make(map[string]string, len(ports.Keys))
		for _, key := range ports.Keys {
			v, ok, err := src.Get(ctx, entityID, key)
			if err != nil {
				return stats, fmt.Errorf("failed to read %s/%s: %w", entityID, key, err)
			}
			if ok {
				values[key] = v
			}
		}
		if len(values) == 0 {
			continue
		}
		if err := s.SetAll(ctx, entityID, values); err != nil {
			return stats, fmt.Errorf("failed to write %s: %w", entityID, err)
		}
		stats.Entities++
		stats.Keys += len(values)
	}

	stats.Duration = time.Since(start)
	return stats, nil
}
