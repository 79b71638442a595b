package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestRetryableTxError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"serialization failure": {err: &pgconn.PgError{Code: "40001"}, want: true},
		"deadlock":              {err: &pgconn.PgError{Code: "40P01"}, want: true},
		"wrapped serialization": {err: fmt.Errorf("platform/db: commit tx: %w", &pgconn.PgError{Code: "40001"}), want: true},
		"unique violation":      {err: &pgconn.PgError{Code: "23505"}, want: false},
		"no rows":               {err: pgx.ErrNoRows, want: false},
		"plain error":           {err: errors.New("boom"), want: false},
		"nil":                   {err: nil, want: false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, retryableTxError(tc.err))
		})
	}
}
