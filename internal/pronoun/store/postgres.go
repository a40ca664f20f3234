package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"pronounapi/internal/pronoun"
	"pronounapi/pkg/platform/sentinel"
)

// PostgresStore persists pronoun definitions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed pronoun store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the pronouns table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pronouns (
			id                    TEXT PRIMARY KEY,
			compat_code           TEXT,
			display_name          TEXT NOT NULL,
			subject               TEXT NOT NULL,
			object                TEXT NOT NULL,
			possessive_determiner TEXT NOT NULL,
			possessive_pronoun    TEXT NOT NULL,
			reflexive             TEXT NOT NULL,
			creator_id            BIGINT,
			sub_variants          TEXT[] NOT NULL DEFAULT '{}',
			created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure pronouns schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Seed(ctx context.Context, defs []pronoun.Definition) error {
	for _, def := range defs {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO pronouns (id, compat_code, display_name, subject, object,
				possessive_determiner, possessive_pronoun, reflexive, creator_id, sub_variants)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING
		`, def.ID, def.CompatCode, def.DisplayName,
			def.Forms.Subject, def.Forms.Object, def.Forms.PossessiveDeterminer,
			def.Forms.PossessivePronoun, def.Forms.Reflexive,
			def.CreatorID, pq.Array(def.SubVariants))
		if err != nil {
			return fmt.Errorf("seed pronoun %s: %w", def.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, def *pronoun.Definition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pronouns (id, compat_code, display_name, subject, object,
			possessive_determiner, possessive_pronoun, reflexive, creator_id, sub_variants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, def.ID, def.CompatCode, def.DisplayName,
		def.Forms.Subject, def.Forms.Object, def.Forms.PossessiveDeterminer,
		def.Forms.PossessivePronoun, def.Forms.Reflexive,
		def.CreatorID, pq.Array(def.SubVariants))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pronoun %s already exists: %w", def.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert pronoun: %w", err)
	}
	return nil
}

const selectColumns = `id, compat_code, display_name, subject, object,
	possessive_determiner, possessive_pronoun, reflexive, creator_id, sub_variants`

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*pronoun.Definition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM pronouns WHERE id = $1`, id)
	def, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pronoun %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find pronoun: %w", err)
	}
	return def, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []string) ([]*pronoun.Definition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM pronouns WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find pronouns by ids: %w", err)
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

func (s *PostgresStore) FindBuiltinByCompatCode(ctx context.Context, code string) (*pronoun.Definition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM pronouns WHERE compat_code = $1 AND creator_id IS NULL`, code)
	def, err := scanDefinition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("compat code %s: %w", code, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find pronoun by compat code: %w", err)
	}
	return def, nil
}

func (s *PostgresStore) CountByCreator(ctx context.Context, creatorID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pronouns WHERE creator_id = $1`, creatorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pronouns by creator: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*pronoun.Definition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM pronouns`)
	if err != nil {
		return nil, fmt.Errorf("list pronouns: %w", err)
	}
	defer rows.Close()
	return scanDefinitions(rows)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pronouns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pronoun: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pronoun: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pronoun %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*pronoun.Definition, error) {
	var def pronoun.Definition
	var subVariants pq.StringArray
	err := row.Scan(&def.ID, &def.CompatCode, &def.DisplayName,
		&def.Forms.Subject, &def.Forms.Object, &def.Forms.PossessiveDeterminer,
		&def.Forms.PossessivePronoun, &def.Forms.Reflexive,
		&def.CreatorID, &subVariants)
	if err != nil {
		return nil, err
	}
	def.SubVariants = subVariants
	return &def, nil
}

func scanDefinitions(rows *sql.Rows) ([]*pronoun.Definition, error) {
	var defs []*pronoun.Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pronoun: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pronouns: %w", err)
	}
	return defs, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
