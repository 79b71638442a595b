package shared

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the store cares about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// TranslateWriteError maps driver errors raised by INSERT/UPDATE statements
// onto the store taxonomy.
func TranslateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrConstraintViolation, pgErr.ConstraintName)
		case pgCheckViolation, pgNotNullViolation:
			return fmt.Errorf("%w: %s", ErrValidation, pgErr.ConstraintName)
		}
	}
	return err
}

// TranslateDeleteError maps driver errors raised by DELETE statements. A
// foreign-key violation here means a dependent row with RESTRICT semantics
// still references the target.
func TranslateDeleteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgForeignKeyViolation {
			return fmt.Errorf("%w: %s", ErrRestrictedDelete, pgErr.ConstraintName)
		}
	}
	return err
}
