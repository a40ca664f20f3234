// Package store persists pronoun definitions.
//
// Error Contract:
// All store methods follow this pattern:
// - Return sentinel.ErrNotFound (wrapped) when the requested entity does not exist
// - Return sentinel.ErrConflict (wrapped) when a uniqueness constraint rejects a write
// - Return wrapped errors with context for infrastructure failures
package store

import (
	"context"

	"pronounapi/internal/pronoun"
)

type Store interface {
	// Seed inserts definitions whose ids are not yet present. Ids already in
	// the store are left untouched, making startup seeding idempotent.
	Seed(ctx context.Context, defs []pronoun.Definition) error

	// Insert stores a new definition, failing with ErrConflict on id reuse.
	Insert(ctx context.Context, def *pronoun.Definition) error

	FindByID(ctx context.Context, id string) (*pronoun.Definition, error)

	// FindByIDs returns the definitions found for ids; missing ids are simply
	// absent from the result, callers compare lengths.
	FindByIDs(ctx context.Context, ids []string) ([]*pronoun.Definition, error)

	// FindBuiltinByCompatCode resolves an upstream compat code against seeded
	// definitions only. User-created definitions never carry compat codes by
	// construction and must not be consulted.
	FindBuiltinByCompatCode(ctx context.Context, code string) (*pronoun.Definition, error)

	CountByCreator(ctx context.Context, creatorID int64) (int, error)

	List(ctx context.Context) ([]*pronoun.Definition, error)

	Delete(ctx context.Context, id string) error
}
