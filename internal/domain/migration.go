package domain

import "time"

// MigrationStats holds statistics from copying metadata between stores
type MigrationStats struct {
	Entities int
	Keys     int
	Skipped  int // entities whose keys were already present at the target
	Duration time.Duration
}
