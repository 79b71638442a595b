package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*TokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTokenStore(client, ttl), mr
}

func TestTokenIssueAndResolve(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, Identity{UserID: 42, Email: "ops@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, int64(42), id.UserID)
	require.Equal(t, "ops@example.com", id.Email)
}

func TestTokenResolveUnknown(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	_, err := store.Resolve(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = store.Resolve(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenExpires(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	token, err := store.Issue(ctx, Identity{UserID: 1, Email: "a@example.com"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenRevoke(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, Identity{UserID: 1, Email: "a@example.com"})
	require.NoError(t, err)
	require.NoError(t, store.Revoke(ctx, token))

	_, err = store.Resolve(ctx, token)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Revoking twice or revoking nothing is not an error.
	require.NoError(t, store.Revoke(ctx, token))
	require.NoError(t, store.Revoke(ctx, ""))
}
