package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"budgetbot/internal/core"
	"budgetbot/internal/planstore"
)

var _ planstore.Store = (*Store)(nil)

// Store keeps the document in process memory. Every write bumps the revision.
type Store struct {
	mu       sync.Mutex
	doc      *core.Document
	revision core.Version
}

// New returns a store holding doc, which may be nil.
func New(doc *core.Document) *Store {
	s := &Store{}
	if doc != nil {
		s.doc = doc.Clone()
		s.revision = 1
	}
	return s
}

// NewFromFile seeds the store from a JSON document on disk. A missing or
// invalid file yields an empty store.
func NewFromFile(path string) *Store {
	data, err := os.ReadFile(path)
	if err != nil {
		return New(nil)
	}
	doc, err := core.ParseDocument(data)
	if err != nil {
		slog.Warn("Ignoring invalid seed document", "path", path, "error", err)
		return New(nil)
	}
	return New(doc)
}

func (s *Store) Read(_ context.Context) (*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, core.ErrNoPlan
	}
	return s.doc.Clone(), nil
}

func (s *Store) Write(_ context.Context, doc *core.Document) error {
	if doc == nil || doc.Plan == nil {
		return fmt.Errorf("write empty document: %w", core.ErrPersist)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.revision++
	return nil
}

func (s *Store) Version(_ context.Context) (core.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision, nil
}
