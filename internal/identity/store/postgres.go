package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pronounapi/internal/identity"
	"pronounapi/pkg/platform/sentinel"
)

// PostgresStore persists identities in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the identities table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS identities (
			id                     BIGSERIAL PRIMARY KEY,
			discord_id             TEXT UNIQUE,
			github_id              TEXT UNIQUE,
			minecraft_id           TEXT UNIQUE,
			preferred_pronoun_id   TEXT NOT NULL DEFAULT 'unspecified',
			extra_pronoun_ids      TEXT[] NOT NULL DEFAULT '{}',
			randomize_sub_variants BOOLEAN NOT NULL DEFAULT false,
			created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure identities schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, ident *identity.Identity) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO identities (discord_id, github_id, minecraft_id,
			preferred_pronoun_id, extra_pronoun_ids, randomize_sub_variants)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, ident.Discord, ident.GitHub, ident.Minecraft,
		ident.PreferredPronounID, pq.Array(ident.ExtraPronounIDs),
		ident.RandomizeSubVariants).Scan(&ident.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("platform account already bound: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

const selectColumns = `id, discord_id, github_id, minecraft_id,
	preferred_pronoun_id, extra_pronoun_ids, randomize_sub_variants`

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*identity.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM identities WHERE id = $1`, id)
	ident, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("identity %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return ident, nil
}

func (s *PostgresStore) FindByPlatformID(ctx context.Context, p identity.Platform, externalID string) (*identity.Identity, error) {
	column, err := platformColumn(p)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM identities WHERE `+column+` = $1`, externalID)
	ident, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s account %s: %w", p, externalID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find identity by platform: %w", err)
	}
	return ident, nil
}

func (s *PostgresStore) Update(ctx context.Context, ident *identity.Identity) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE identities
		SET preferred_pronoun_id = $2,
			extra_pronoun_ids = $3,
			randomize_sub_variants = $4
		WHERE id = $1
	`, ident.ID, ident.PreferredPronounID,
		pq.Array(ident.ExtraPronounIDs), ident.RandomizeSubVariants)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	return requireAffected(res, ident.ID)
}

func (s *PostgresStore) SetPlatformID(ctx context.Context, id int64, p identity.Platform, externalID string) error {
	column, err := platformColumn(p)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE identities SET `+column+` = $2 WHERE id = $1`, id, externalID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s account %s already bound: %w", p, externalID, sentinel.ErrConflict)
		}
		return fmt.Errorf("bind %s account: %w", p, err)
	}
	return requireAffected(res, id)
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return requireAffected(res, id)
}

func (s *PostgresStore) CountByPreferredPronoun(ctx context.Context, pronounID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM identities WHERE preferred_pronoun_id = $1`, pronounID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count identities by preferred pronoun: %w", err)
	}
	return count, nil
}

// platformColumn maps a platform to its column. The switch doubles as an
// allowlist so the column name is never attacker-influenced.
func platformColumn(p identity.Platform) (string, error) {
	switch p {
	case identity.PlatformDiscord:
		return "discord_id", nil
	case identity.PlatformGitHub:
		return "github_id", nil
	case identity.PlatformMinecraft:
		return "minecraft_id", nil
	}
	return "", fmt.Errorf("unknown platform %q", p)
}

func scanIdentity(row *sql.Row) (*identity.Identity, error) {
	var ident identity.Identity
	var extras pq.StringArray
	err := row.Scan(&ident.ID, &ident.Discord, &ident.GitHub, &ident.Minecraft,
		&ident.PreferredPronounID, &extras, &ident.RandomizeSubVariants)
	if err != nil {
		return nil, err
	}
	ident.ExtraPronounIDs = extras
	return &ident, nil
}

func requireAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("identity %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("identity %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
