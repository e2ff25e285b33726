// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/scriptorium/internal/platform/database/schema"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
	"github.com/taibuivan/scriptorium/internal/platform/sec"
)

// bootstrapLockKey serializes default-profile creation so only one first
// profile can be promoted to admin.
const bootstrapLockKey = "identity.profile.bootstrap"

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new Postgres implementation for profiles.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: pool}
}

var profile = schema.IdentityProfile

var profileConstraints = dberr.Constraints{
	"profile_account_fkey": "The account does not exist",
	"profile_role_check":   "Unknown role",
}

func profileColumns() string {
	return schema.List("", profile.ID, profile.Email, profile.Role, profile.CreatedAt, profile.UpdatedAt)
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var result Profile
	if err := row.Scan(&result.ID, &result.Email, &result.Role, &result.CreatedAt, &result.UpdatedAt); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindByID returns nil, nil when the account has no profile.
func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, profileColumns(), profile.Table, profile.ID)

	result, err := scanProfile(repository.db.QueryRow(ctx, query, id))
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, nil
		}
		return nil, dberr.Wrap(err, "find_profile")
	}
	return result, nil
}

/*
CreateDefault inserts the profile inside a transaction holding an advisory
lock, choosing admin only when no admin profile exists yet.
*/
func (repository *PostgresRepository) CreateDefault(ctx context.Context, id, email string) (*Profile, error) {
	insert := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s)
		SELECT $1, $2, CASE WHEN EXISTS (SELECT 1 FROM %[1]s WHERE %[4]s = $3) THEN $4 ELSE $3 END
		ON CONFLICT (%[2]s) DO NOTHING`,
		profile.Table, profile.ID, profile.Email, profile.Role,
	)
	selectQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, profileColumns(), profile.Table, profile.ID)

	var result *Profile
	err := pgx.BeginFunc(ctx, repository.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, bootstrapLockKey); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insert, id, email, string(sec.RoleAdmin), string(sec.RoleMember)); err != nil {
			return err
		}
		var err error
		result, err = scanProfile(tx.QueryRow(ctx, selectQuery, id))
		return err
	})
	if err != nil {
		return nil, dberr.WrapWrite(err, "create_default_profile", profileConstraints)
	}
	return result, nil
}

// SetRole upserts the profile with role.
func (repository *PostgresRepository) SetRole(ctx context.Context, id, email string, role sec.UserRole) (*Profile, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s)
		VALUES ($1, $2, $3)
		ON CONFLICT (%[2]s) DO UPDATE
		SET %[3]s = EXCLUDED.%[3]s, %[4]s = EXCLUDED.%[4]s, %[5]s = NOW()
		RETURNING %[6]s`,
		profile.Table, profile.ID, profile.Email, profile.Role, profile.UpdatedAt, profileColumns(),
	)

	result, err := scanProfile(repository.db.QueryRow(ctx, query, id, email, string(role)))
	if err != nil {
		return nil, dberr.WrapWrite(err, "set_profile_role", profileConstraints)
	}
	return result, nil
}
