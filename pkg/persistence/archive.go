package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/ports"
)

// Store keeps opaque run documents by run ID.
type Store interface {
	Put(ctx context.Context, runID string, doc []byte) error
	// Get returns ports.ErrNotFound for an unknown run.
	Get(ctx context.Context, runID string) ([]byte, error)
	// List returns run IDs in insertion order.
	List(ctx context.Context) ([]string, error)
}

// Archive implements ports.RunArchive on top of a Store.
type Archive struct {
	store Store
}

var _ ports.RunArchive = (*Archive)(nil)

// NewArchive creates an archive writing to store.
func NewArchive(store Store) *Archive {
	return &Archive{store: store}
}

// Save archives st under its run ID.
func (a *Archive) Save(ctx context.Context, st *domain.State) error {
	if st == nil || st.RunID == "" {
		return errors.New("cannot archive a state without run id")
	}
	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return a.store.Put(ctx, st.RunID, doc)
}

// Load reads back an archived state.
func (a *Archive) Load(ctx context.Context, runID string) (*domain.State, error) {
	doc, err := a.store.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	var st domain.State
	if err := json.Unmarshal(doc, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", runID, err)
	}
	return &st, nil
}

// List returns the archived run IDs, oldest first.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	return a.store.List(ctx)
}

// MemoryStore is a Store backed by a map. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string][]byte
	order []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, runID string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[runID]; !ok {
		s.order = append(s.order, runID)
	}
	s.docs[runID] = append([]byte(nil), doc...)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, runID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ports.ErrNotFound)
	}
	return append([]byte(nil), doc...), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...), nil
}
