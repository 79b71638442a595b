package shared

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestTranslateWriteError(t *testing.T) {
	require.NoError(t, TranslateWriteError(nil))

	err := TranslateWriteError(&pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key"})
	require.ErrorIs(t, err, ErrConstraintViolation)
	require.Contains(t, err.Error(), "products_sku_key")

	err = TranslateWriteError(&pgconn.PgError{Code: "23503", ConstraintName: "purchase_orders_supplier_id_fkey"})
	require.ErrorIs(t, err, ErrConstraintViolation)

	err = TranslateWriteError(&pgconn.PgError{Code: "23514", ConstraintName: "products_unit_price_check"})
	require.ErrorIs(t, err, ErrValidation)

	err = TranslateWriteError(&pgconn.PgError{Code: "23502"})
	require.ErrorIs(t, err, ErrValidation)

	require.ErrorIs(t, TranslateWriteError(pgx.ErrNoRows), ErrNotFound)

	// Unrelated errors pass through untouched.
	plain := errors.New("connection reset")
	require.Equal(t, plain, TranslateWriteError(plain))
}

func TestTranslateDeleteError(t *testing.T) {
	require.NoError(t, TranslateDeleteError(nil))

	err := TranslateDeleteError(&pgconn.PgError{Code: "23503", ConstraintName: "purchase_orders_supplier_id_fkey"})
	require.ErrorIs(t, err, ErrRestrictedDelete)

	// Unique violations cannot happen on delete; pass through.
	unique := &pgconn.PgError{Code: "23505"}
	require.Equal(t, error(unique), TranslateDeleteError(unique))
}
