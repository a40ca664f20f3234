// Package store persists identities and their platform account bindings.
//
// Error Contract:
// All store methods follow this pattern:
// - Return sentinel.ErrNotFound (wrapped) when the requested entity does not exist
// - Return sentinel.ErrConflict (wrapped) when a uniqueness constraint rejects a write
// - Return wrapped errors with context for infrastructure failures
package store

import (
	"context"

	"pronounapi/internal/identity"
)

type Store interface {
	// Create inserts the identity and assigns its ID. Any platform bindings
	// already set on the value participate in uniqueness checks.
	Create(ctx context.Context, ident *identity.Identity) error

	FindByID(ctx context.Context, id int64) (*identity.Identity, error)

	// FindByPlatformID resolves the identity holding the given external
	// account, ErrNotFound when no identity has it bound.
	FindByPlatformID(ctx context.Context, p identity.Platform, externalID string) (*identity.Identity, error)

	// Update persists the pronoun preference fields of an existing identity.
	Update(ctx context.Context, ident *identity.Identity) error

	// SetPlatformID binds an external account to the identity. The store's
	// uniqueness constraint is authoritative: ErrConflict when another
	// identity already holds the binding.
	SetPlatformID(ctx context.Context, id int64, p identity.Platform, externalID string) error

	Delete(ctx context.Context, id int64) error

	// CountByPreferredPronoun reports how many identities currently prefer
	// the given definition.
	CountByPreferredPronoun(ctx context.Context, pronounID string) (int, error)
}
