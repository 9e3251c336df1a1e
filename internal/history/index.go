package history

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"trailbook/internal/ports"
)

// Index maps entity ids to their managers. One Index is created when the
// host starts and passed to every component that needs to find a manager;
// managers add and remove themselves, and Close disposes whatever is left at
// shutdown.
type Index struct {
	mu       sync.RWMutex
	managers map[string]*Manager
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{managers: make(map[string]*Manager)}
}

// Lookup returns the manager for entityID
func (ix *Index) Lookup(entityID string) (*Manager, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	m, ok := ix.managers[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrManagerNotFound, entityID)
	}
	return m, nil
}

// Open returns the registered manager for entityID, creating one backed by
// store if there is none
func (ix *Index) Open(ctx context.Context, entityID string, store ports.MetadataStore, opts ...Option) (*Manager, error) {
	if m, err := ix.Lookup(entityID); err == nil {
		return m, nil
	}
	return NewManager(ctx, entityID, store, ix, opts...)
}

// Entities returns the registered entity ids, sorted
func (ix *Index) Entities() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ids := make([]string, 0, len(ix.managers))
	for id := range ix.managers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of registered managers
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.managers)
}

// Close disposes every registered manager
func (ix *Index) Close() {
	ix.mu.Lock()
	managers := make([]*Manager, 0, len(ix.managers))
	for _, m := range ix.managers {
		managers = append(managers, m)
	}
	ix.mu.Unlock()

	for _, m := range managers {
		m.Dispose()
	}
}

// replace registers m and returns the manager it displaced, if any
func (ix *Index) replace(m *Manager) *Manager {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	prev := ix.managers[m.entityID]
	ix.managers[m.entityID] = m
	if prev == m {
		return nil
	}
	return prev
}

// ensure registers m unless another manager holds the entity
func (ix *Index) ensure(m *Manager) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if cur, ok := ix.managers[m.entityID]; ok && cur != m {
		return false
	}
	ix.managers[m.entityID] = m
	return true
}

// unregister removes m if it is the manager registered for its entity
func (ix *Index) unregister(m *Manager) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.managers[m.entityID] == m {
		delete(ix.managers, m.entityID)
	}
}
