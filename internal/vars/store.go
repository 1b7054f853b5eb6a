package vars

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store is a flow's variable store.
type Store interface {
	Lookup
	Set(name, value string) error
}

// PersistentStore is a Store backed by a file or database.
type PersistentStore interface {
	Store
	Save() error
	Path() string
	Close() error
}

// Open picks the backend from the file extension: .db, .sqlite and .sqlite3
// open a SQLiteStore, anything else a YAML FileStore.
func Open(path string) (PersistentStore, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		s, err := OpenSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := OpenFileStore(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// MemoryStore is a map-backed Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMemoryStore returns a store seeded with a copy of initial.
func NewMemoryStore(initial map[string]any) *MemoryStore {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

// Get returns the value of name and whether it is set.
func (s *MemoryStore) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Set stores value under name.
func (s *MemoryStore) Set(name, value string) error {
	if name == "" {
		return errors.New("variable name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

// Snapshot returns the variables as strings. Nil values stay nil.
func (s *MemoryStore) Snapshot() map[string]*string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*string, len(s.values))
	for k, v := range s.values {
		if v == nil {
			out[k] = nil
			continue
		}
		str := stringForm(v)
		out[k] = &str
	}
	return out
}

// FileStore keeps variables in a YAML file. Changes are only written by Save.
type FileStore struct {
	*MemoryStore
	path string
}

// OpenFileStore loads the YAML variable file at path. A missing file yields an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	values := map[string]any{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read variable file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("failed to parse variable file %s: %w", path, err)
		}
		if values == nil {
			values = map[string]any{}
		}
	}

	return &FileStore{MemoryStore: NewMemoryStore(values), path: path}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Save writes all variables back to the YAML file.
func (s *FileStore) Save() error {
	s.mu.RLock()
	data, err := yaml.Marshal(s.values)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// Close is a no-op. The file is only touched by Save.
func (s *FileStore) Close() error { return nil }
