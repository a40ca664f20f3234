// Package store persists audit events.
package store

import (
	"context"
	"sync"

	"pronounapi/pkg/platform/audit"
)

// Store appends audit events to durable storage.
type Store interface {
	Append(ctx context.Context, event audit.Event) error
}

// InMemoryStore holds events in memory, for tests and storeless dev runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a snapshot of all recorded events.
func (s *InMemoryStore) Events() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event(nil), s.events...)
}
