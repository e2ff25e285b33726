// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
//
// Reads go through [Wrap]: a missing row becomes [ErrNotFound] and every
// other failure becomes a BACKEND_ERROR carrying the backend's message.
// Writes go through [WrapWrite], which additionally translates SQLSTATE
// constraint violations into client errors so raw codes never leak.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/scriptorium/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Constraints maps a constraint name to the user-facing message shown when
// a write violates it.
type Constraints map[string]string

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound) {
		return true
	}
	appError := apperr.As(err)
	return appError != nil && appError.Code == "NOT_FOUND"
}

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Already classified
	if apperr.IsAppError(err) {
		return err
	}

	// 3. Everything else is a transport failure surfaced with the backend's message
	return apperr.Backend(backendMessage(err), fmt.Errorf("%s: %w", action, err))
}

// WrapWrite is [Wrap] for INSERT/UPDATE/DELETE statements.
//
// Unique violations become CONFLICT, foreign-key violations become CONFLICT
// (delete of a referenced row) or UNPROCESSABLE (reference to a missing row),
// and not-null/check violations become VALIDATION_ERROR.
func WrapWrite(err error, action string, constraints Constraints) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return Wrap(err, action)
	}

	message := constraints[pgErr.ConstraintName]

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		if message == "" {
			message = "A record with the same identifier already exists"
		}
		return withCause(apperr.Conflict(message), action, err)

	case pgerrcode.ForeignKeyViolation:
		if isDeleteAction(action) {
			if message == "" {
				message = "The record is still referenced by other records"
			}
			return withCause(apperr.Conflict(message), action, err)
		}
		if message == "" {
			message = "The referenced record does not exist"
		}
		return withCause(apperr.Unprocessable(message), action, err)

	case pgerrcode.NotNullViolation:
		return withCause(apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   pgErr.ColumnName,
			Message: "This field is required",
		}), action, err)

	case pgerrcode.CheckViolation:
		if message == "" {
			message = "A value is outside its allowed range"
		}
		return withCause(apperr.ValidationError(message), action, err)

	case pgerrcode.StringDataRightTruncationDataException:
		return withCause(apperr.ValidationError("A value is too long"), action, err)
	}

	return Wrap(err, action)
}

// backendMessage extracts the client-facing text of a backend failure.
// For server-reported errors only the primary message is used, never the
// detail or the statement.
func backendMessage(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return "The catalog backend could not be reached"
	}

	if pgconn.Timeout(err) {
		return "The catalog backend did not respond in time"
	}

	return err.Error()
}

func withCause(appError *apperr.AppError, action string, cause error) *apperr.AppError {
	appError.Cause = fmt.Errorf("%s: %w", action, cause)
	return appError
}

func isDeleteAction(action string) bool {
	return len(action) >= len("delete") && action[:len("delete")] == "delete"
}
