package trust

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

const storeVersion = 1

// storeFile is the on-disk layout of the trust store
type storeFile struct {
	Version    int               `json:"version"`
	Workspaces map[string]string `json:"workspaces"`
}

// FileStore persists decisions as a JSON document.
// Writes go to a temp file in the same directory and are renamed into place.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store at path; the file is created on first save
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultStorePath returns the per-user trust store location
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, "shellgate", "trust.json"), nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// Load reads all decisions; a missing file is an empty store
func (s *FileStore) Load(ctx context.Context) (map[string]State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read trust store %s: %w", s.path, err)
	}

	var file storeFile
	if err := sonic.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse trust store %s: %w", s.path, err)
	}

	states := make(map[string]State, len(file.Workspaces))
	for workspaceID, name := range file.Workspaces {
		state, err := ParseState(name)
		if err != nil {
			return nil, fmt.Errorf("trust store entry %s: %w", workspaceID, err)
		}
		states[workspaceID] = state
	}

	return states, nil
}

// Save replaces the stored decisions
func (s *FileStore) Save(ctx context.Context, states map[string]State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file := storeFile{
		Version:    storeVersion,
		Workspaces: make(map[string]string, len(states)),
	}
	for workspaceID, state := range states {
		file.Workspaces[workspaceID] = state.String()
	}

	data, err := sonic.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode trust store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create trust store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".trust-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write trust store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync trust store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close trust store: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace trust store: %w", err)
	}

	return nil
}

// MemoryStore keeps decisions in memory only
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
	saves  int
}

// NewMemoryStore creates a store seeded with initial decisions
func NewMemoryStore(initial map[string]State) *MemoryStore {
	states := make(map[string]State, len(initial))
	for k, v := range initial {
		states[k] = v
	}
	return &MemoryStore{states: states}
}

// Load returns a copy of the stored decisions
func (m *MemoryStore) Load(ctx context.Context) (map[string]State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]State, len(m.states))
	for k, v := range m.states {
		out[k] = v
	}
	return out, nil
}

// Save replaces the stored decisions
func (m *MemoryStore) Save(ctx context.Context, states map[string]State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states = make(map[string]State, len(states))
	for k, v := range states {
		m.states[k] = v
	}
	m.saves++
	return nil
}

// Saves returns how many times Save was called
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saves
}
