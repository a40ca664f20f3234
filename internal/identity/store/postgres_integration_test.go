package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"pronounapi/internal/identity"
	"pronounapi/pkg/platform/sentinel"
)

func setupPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("pronounapi_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewPostgres(db)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func TestPostgresStore_CreateAndFind(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	ident := &identity.Identity{PreferredPronounID: "unspecified"}
	require.NoError(t, ident.SetExternalID(identity.PlatformDiscord, "100"))
	require.NoError(t, store.Create(ctx, ident))
	require.NotZero(t, ident.ID)

	found, err := store.FindByPlatformID(ctx, identity.PlatformDiscord, "100")
	require.NoError(t, err)
	require.Equal(t, ident.ID, found.ID)
	require.Equal(t, "unspecified", found.PreferredPronounID)
}

func TestPostgresStore_UniqueBinding(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	a := &identity.Identity{PreferredPronounID: "unspecified"}
	require.NoError(t, a.SetExternalID(identity.PlatformDiscord, "100"))
	require.NoError(t, store.Create(ctx, a))

	b := &identity.Identity{PreferredPronounID: "unspecified"}
	require.NoError(t, b.SetExternalID(identity.PlatformGitHub, "200"))
	require.NoError(t, store.Create(ctx, b))

	err := store.SetPlatformID(ctx, b.ID, identity.PlatformDiscord, "100")
	require.ErrorIs(t, err, sentinel.ErrConflict)

	holder, err := store.FindByPlatformID(ctx, identity.PlatformDiscord, "100")
	require.NoError(t, err)
	require.Equal(t, a.ID, holder.ID)
}

func TestPostgresStore_UpdateAndDelete(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	ident := &identity.Identity{PreferredPronounID: "unspecified"}
	require.NoError(t, ident.SetExternalID(identity.PlatformDiscord, "300"))
	require.NoError(t, store.Create(ctx, ident))

	ident.PreferredPronounID = "theyThem"
	ident.ExtraPronounIDs = []string{"itIts", "sheHer"}
	ident.RandomizeSubVariants = true
	require.NoError(t, store.Update(ctx, ident))

	found, err := store.FindByID(ctx, ident.ID)
	require.NoError(t, err)
	require.Equal(t, "theyThem", found.PreferredPronounID)
	require.Equal(t, []string{"itIts", "sheHer"}, found.ExtraPronounIDs)
	require.True(t, found.RandomizeSubVariants)

	count, err := store.CountByPreferredPronoun(ctx, "theyThem")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, store.Delete(ctx, ident.ID))
	_, err = store.FindByID(ctx, ident.ID)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
