// Package filesystem provides a MetadataStore that keeps one file per key
// under a directory tree, so histories can be inspected and versioned with
// ordinary tools.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"trailbook/internal/ports"
)

const valueExt = ".json"

// ErrInvalidName is returned for an empty entity id or key
var ErrInvalidName = errors.New("entity id and key must not be empty")

// Store implements ports.MetadataStore using the filesystem. The layout is
// <root>/<entity>/<key>.json with entity and key path-escaped and a leading
// dot written as %2E, so "." and ".." stay inside the root.
type Store struct {
	root string
}

// Ensure Store implements MetadataStore
var _ ports.MetadataStore = (*Store)(nil)

// NewStore creates a store rooted at root
func NewStore(root string) *Store {
	// Expand ~ to home directory
	if strings.HasPrefix(root, "~") {
		home, _ := os.UserHomeDir()
		root = filepath.Join(home, root[1:])
	}
	return &Store{root: root}
}

// Root returns the store directory
func (s *Store) Root() string {
	return s.root
}

// escapeName turns an id or key into a single path element
func escapeName(name string) (string, error) {
	if name == "" {
		return "", ErrInvalidName
	}
	escaped := url.PathEscape(name)
	if strings.HasPrefix(escaped, ".") {
		escaped = "%2E" + escaped[1:]
	}
	return escaped, nil
}

func (s *Store) entityDir(entityID string) (string, error) {
	name, err := escapeName(entityID)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, name)
	if rel, err := filepath.Rel(s.root, dir); err != nil || rel != name {
		return "", fmt.Errorf("entity %q resolves outside the store", entityID)
	}
	return dir, nil
}

func (s *Store) keyPath(entityID, key string) (string, error) {
	dir, err := s.entityDir(entityID)
	if err != nil {
		return "", err
	}
	name, err := escapeName(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+valueExt), nil
}

// Get reads the file holding key
func (s *Store) Get(ctx context.Context, entityID, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	path, err := s.keyPath(entityID, key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s/%s: %w", entityID, key, err)
	}
	return string(data), true, nil
}

// Set replaces the file holding key. The write goes to a temporary file
// that is renamed into place, so readers never see a partial value.
func (s *Store) Set(ctx context.Context, entityID, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.keyPath(entityID, key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create entity directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s/%s: %w", entityID, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s/%s: %w", entityID, key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s/%s: %w", entityID, key, err)
	}
	return nil
}

// Delete removes the file holding key, and the entity directory once empty
func (s *Store) Delete(ctx context.Context, entityID, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.keyPath(entityID, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s/%s: %w", entityID, key, err)
	}
	// Fails harmlessly while other keys remain
	os.Remove(filepath.Dir(path))
	return nil
}

// Entities lists every entity directory holding at least one value file
func (s *Store) Entities(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !s.hasValues(filepath.Join(s.root, entry.Name())) {
			continue
		}
		id, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) hasValues(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), valueExt) && !strings.HasPrefix(e.Name(), ".") {
			return true
		}
	}
	return false
}

// DeleteEntity removes the entity directory. It is renamed aside first so
// the entity disappears in one step even if removal is interrupted.
func (s *Store) DeleteEntity(ctx context.Context, entityID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.entityDir(entityID)
	if err != nil {
		return err
	}
	trash, err := os.MkdirTemp(s.root, ".trash-*")
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", entityID, err)
	}
	defer os.RemoveAll(trash)

	if err := os.Rename(dir, filepath.Join(trash, "entity")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", entityID, err)
	}
	return nil
}

// Close is a no-op; every operation opens its own files
func (s *Store) Close() error {
	return nil
}
