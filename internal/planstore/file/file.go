package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"budgetbot/internal/core"
	"budgetbot/internal/planstore"
)

var _ planstore.Store = (*Store)(nil)

// Store persists the document as a JSON file. The version is the file's
// modification time in nanoseconds.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Read(_ context.Context) (*core.Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.ErrNoPlan
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return core.ParseDocument(data)
}

// Write replaces the file atomically through a temp file and rename.
func (s *Store) Write(_ context.Context, doc *core.Document) error {
	if doc == nil || doc.Plan == nil {
		return fmt.Errorf("write empty document: %w", core.ErrPersist)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create plan directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".budget-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) Version(_ context.Context) (core.Version, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", s.path, err)
	}
	return core.Version(info.ModTime().UnixNano()), nil
}
