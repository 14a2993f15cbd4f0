// Package state persists the collection state as one whole snapshot, so a
// reader never observes partially-updated sets.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"SubredditStats/internal/domain"
	"SubredditStats/internal/ports"
)

// FileStore keeps the snapshot in a JSON file. Saves go through a temp
// file and rename, so the file on disk is always a complete snapshot.
type FileStore struct {
	path string
}

var _ ports.StateStore = (*FileStore)(nil)

// NewFileStore points the store at its JSON file; parent directories are
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the snapshot; a missing file is an empty state, not an error.
func (s *FileStore) Load() (*domain.CollectionState, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewCollectionState(), nil
		}
		return nil, fmt.Errorf("read state %s: %w", s.path, err)
	}

	var sn domain.Snapshot
	if err := json.Unmarshal(raw, &sn); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", s.path, err)
	}

	st, err := domain.FromSnapshot(sn)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", s.path, err)
	}
	return st, nil
}

// Save writes the full snapshot atomically.
func (s *FileStore) Save(state *domain.CollectionState) error {
	raw, err := json.MarshalIndent(state.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state %s: %w", s.path, err)
	}
	return nil
}
