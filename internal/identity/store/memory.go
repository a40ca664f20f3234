package store

import (
	"context"
	"fmt"
	"sync"

	"pronounapi/internal/identity"
	"pronounapi/pkg/platform/sentinel"
)

// InMemoryStore keeps identities in memory for tests and storeless dev runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]identity.Identity

	// bindings indexes platform -> external id -> identity id so uniqueness
	// checks mirror the database constraint.
	bindings map[identity.Platform]map[string]int64
}

func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{
		nextID:   1,
		byID:     make(map[int64]identity.Identity),
		bindings: make(map[identity.Platform]map[string]int64),
	}
	for _, p := range identity.Platforms() {
		s.bindings[p] = make(map[string]int64)
	}
	return s
}

func (s *InMemoryStore) Create(_ context.Context, ident *identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range identity.Platforms() {
		ext := ident.ExternalID(p)
		if ext == nil {
			continue
		}
		if _, taken := s.bindings[p][*ext]; taken {
			return fmt.Errorf("%s account %s already bound: %w", p, *ext, sentinel.ErrConflict)
		}
	}

	ident.ID = s.nextID
	s.nextID++
	s.byID[ident.ID] = copyIdentity(ident)
	for _, p := range identity.Platforms() {
		if ext := ident.ExternalID(p); ext != nil {
			s.bindings[p][*ext] = ident.ID
		}
	}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("identity %d: %w", id, sentinel.ErrNotFound)
	}
	out := copyIdentity(&ident)
	return &out, nil
}

func (s *InMemoryStore) FindByPlatformID(_ context.Context, p identity.Platform, externalID string) (*identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bindings[p][externalID]
	if !ok {
		return nil, fmt.Errorf("%s account %s: %w", p, externalID, sentinel.ErrNotFound)
	}
	ident := s.byID[id]
	out := copyIdentity(&ident)
	return &out, nil
}

func (s *InMemoryStore) Update(_ context.Context, ident *identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[ident.ID]
	if !ok {
		return fmt.Errorf("identity %d: %w", ident.ID, sentinel.ErrNotFound)
	}
	stored.PreferredPronounID = ident.PreferredPronounID
	stored.ExtraPronounIDs = append([]string(nil), ident.ExtraPronounIDs...)
	stored.RandomizeSubVariants = ident.RandomizeSubVariants
	s.byID[ident.ID] = stored
	return nil
}

func (s *InMemoryStore) SetPlatformID(_ context.Context, id int64, p identity.Platform, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("identity %d: %w", id, sentinel.ErrNotFound)
	}
	if holder, taken := s.bindings[p][externalID]; taken && holder != id {
		return fmt.Errorf("%s account %s already bound: %w", p, externalID, sentinel.ErrConflict)
	}
	if prev := stored.ExternalID(p); prev != nil {
		delete(s.bindings[p], *prev)
	}
	if err := stored.SetExternalID(p, externalID); err != nil {
		return err
	}
	s.bindings[p][externalID] = id
	s.byID[id] = stored
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("identity %d: %w", id, sentinel.ErrNotFound)
	}
	for _, p := range identity.Platforms() {
		if ext := stored.ExternalID(p); ext != nil {
			delete(s.bindings[p], *ext)
		}
	}
	delete(s.byID, id)
	return nil
}

func (s *InMemoryStore) CountByPreferredPronoun(_ context.Context, pronounID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, ident := range s.byID {
		if ident.PreferredPronounID == pronounID {
			count++
		}
	}
	return count, nil
}

func copyIdentity(ident *identity.Identity) identity.Identity {
	out := *ident
	out.ExtraPronounIDs = append([]string(nil), ident.ExtraPronounIDs...)
	if ident.Discord != nil {
		v := *ident.Discord
		out.Discord = &v
	}
	if ident.GitHub != nil {
		v := *ident.GitHub
		out.GitHub = &v
	}
	if ident.Minecraft != nil {
		v := *ident.Minecraft
		out.Minecraft = &v
	}
	return out
}
