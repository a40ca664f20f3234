package store

import (
	"context"
	"fmt"
	"sync"

	"pronounapi/internal/pronoun"
	"pronounapi/pkg/platform/sentinel"
)

// InMemoryStore keeps the catalog in memory for tests and storeless dev runs.
// It intentionally favors clarity over performance.
type InMemoryStore struct {
	mu   sync.RWMutex
	defs map[string]pronoun.Definition
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{defs: make(map[string]pronoun.Definition)}
}

func (s *InMemoryStore) Seed(_ context.Context, defs []pronoun.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, def := range defs {
		if _, ok := s.defs[def.ID]; ok {
			continue
		}
		s.defs[def.ID] = def
	}
	return nil
}

func (s *InMemoryStore) Insert(_ context.Context, def *pronoun.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[def.ID]; ok {
		return fmt.Errorf("pronoun %s already exists: %w", def.ID, sentinel.ErrConflict)
	}
	s.defs[def.ID] = *def
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*pronoun.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if def, ok := s.defs[id]; ok {
		return &def, nil
	}
	return nil, fmt.Errorf("pronoun %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByIDs(_ context.Context, ids []string) ([]*pronoun.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make([]*pronoun.Definition, 0, len(ids))
	for _, id := range ids {
		if def, ok := s.defs[id]; ok {
			found = append(found, &def)
		}
	}
	return found, nil
}

func (s *InMemoryStore) FindBuiltinByCompatCode(_ context.Context, code string) (*pronoun.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, def := range s.defs {
		if !def.IsBuiltin() || def.CompatCode == nil {
			continue
		}
		if *def.CompatCode == code {
			return &def, nil
		}
	}
	return nil, fmt.Errorf("compat code %s: %w", code, sentinel.ErrNotFound)
}

func (s *InMemoryStore) CountByCreator(_ context.Context, creatorID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, def := range s.defs {
		if def.CreatorID != nil && *def.CreatorID == creatorID {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*pronoun.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	defs := make([]*pronoun.Definition, 0, len(s.defs))
	for _, def := range s.defs {
		d := def
		defs = append(defs, &d)
	}
	return defs, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.defs[id]; !ok {
		return fmt.Errorf("pronoun %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.defs, id)
	return nil
}
