package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom-hq/stockroom/internal/shared"
)

type fakeRepo struct {
	users map[string]*User
}

func (r *fakeRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func newTestService(t *testing.T, users map[string]*User) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	tokens := shared.NewTokenStore(client, time.Hour)
	return NewService(&fakeRepo{users: users}, tokens)
}

func testUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &User{ID: 7, Email: "ops@example.com", Name: "Ops", PasswordHash: string(hash), IsActive: true}
}

func TestLoginIssuesToken(t *testing.T) {
	user := testUser(t, "s3cret")
	svc := newTestService(t, map[string]*User{user.Email: user})

	token, got, err := svc.Login(context.Background(), user.Email, "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "Ops", got.Name)
	require.Equal(t, int64(7), got.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "s3cret")
	svc := newTestService(t, map[string]*User{user.Email: user})

	_, _, err := svc.Login(context.Background(), user.Email, "nope")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, map[string]*User{})

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "s3cret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	user := testUser(t, "s3cret")
	user.IsActive = false
	svc := newTestService(t, map[string]*User{user.Email: user})

	_, _, err := svc.Login(context.Background(), user.Email, "s3cret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
