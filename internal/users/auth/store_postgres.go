// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/scriptorium/internal/platform/database/schema"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
)

// PostgresAccountRepository implements [AccountRepository] on identity.account.
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL-backed AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: pool}
}

var account = schema.IdentityAccount

var accountConstraints = dberr.Constraints{
	"account_email_key": "An account with this email already exists",
}

func accountColumns() string {
	return schema.List("", account.ID, account.Email, account.Password, account.CreatedAt, account.UpdatedAt)
}

func scanAccount(row pgx.Row) (*Account, error) {
	var result Account
	if err := row.Scan(&result.ID, &result.Email, &result.PasswordHash, &result.CreatedAt, &result.UpdatedAt); err != nil {
		return nil, err
	}
	return &result, nil
}

/*
FindByID retrieves a single account by its primary key.

Returns:
  - *Account: Hydrated entity
  - error: dberr.ErrNotFound or backend failures
*/
func (repository *PostgresAccountRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, accountColumns(), account.Table, account.ID)

	result, err := scanAccount(repository.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find_account_by_id")
	}
	return result, nil
}

/*
FindByEmail retrieves a single account by email, ignoring case.

Returns:
  - *Account: Hydrated entity
  - error: dberr.ErrNotFound or backend failures
*/
func (repository *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE LOWER(%s) = LOWER($1)`, accountColumns(), account.Table, account.Email)

	result, err := scanAccount(repository.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, "find_account_by_email")
	}
	return result, nil
}

/*
Upsert inserts the account, or replaces the password hash of the account that
already owns the email. The surviving row's ID and timestamps are scanned back.
*/
func (repository *PostgresAccountRepository) Upsert(ctx context.Context, input *Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s)
		VALUES ($1, $2, $3)
		ON CONFLICT ((LOWER(%[3]s))) DO UPDATE
		SET %[4]s = EXCLUDED.%[4]s, %[5]s = NOW()
		RETURNING %[6]s`,
		account.Table, account.ID, account.Email, account.Password, account.UpdatedAt, accountColumns(),
	)

	result, err := scanAccount(repository.db.QueryRow(ctx, query, input.ID, input.Email, input.PasswordHash))
	if err != nil {
		return dberr.WrapWrite(err, "upsert_account", accountConstraints)
	}

	*input = *result
	return nil
}
