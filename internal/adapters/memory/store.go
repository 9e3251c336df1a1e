// Package memory provides a process-local MetadataStore
package memory

import (
	"context"
	"slices"
	"sync"

	"trailbook/internal/ports"
)

// Store implements ports.MetadataStore in memory
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string]string
	fail error
}

// Ensure Store implements MetadataStore
var _ ports.MetadataStore = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{data: make(map[string]map[string]string)}
}

// FailWrites makes every subsequent Set return err; nil restores writes
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *Store) Get(_ context.Context, entityID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[entityID][key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, entityID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if s.data[entityID] == nil {
		s.data[entityID] = make(map[string]string)
	}
	s.data[entityID][key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, entityID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[entityID], key)
	if len(s.data[entityID]) == 0 {
		delete(s.data, entityID)
	}
	return nil
}

func (s *Store) Entities(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *Store) DeleteEntity(_ context.Context, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, entityID)
	return nil
}

func (s *Store) Close() error {
	return nil
}
