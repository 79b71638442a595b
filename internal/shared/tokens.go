package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore issues and resolves bearer tokens backed by Redis. A token maps
// to the identity of the user it was issued to and expires after the
// configured TTL.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a new token for the identity.
func (s *TokenStore) Issue(ctx context.Context, id Identity) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("token store not initialised")
	}
	payload, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	if err := s.client.Set(ctx, s.redisKey(token), payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the identity a token belongs to, ErrUnauthorized when the
// token is unknown or expired. The token TTL is refreshed on every hit.
func (s *TokenStore) Resolve(ctx context.Context, token string) (*Identity, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("token store not initialised")
	}
	if token == "" {
		return nil, ErrUnauthorized
	}
	payload, err := s.client.Get(ctx, s.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	var id Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return nil, err
	}
	_ = s.client.Expire(ctx, s.redisKey(token), s.ttl).Err()
	return &id, nil
}

// Revoke invalidates a token, typically on logout.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if s == nil || s.client == nil {
		return errors.New("token store not initialised")
	}
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured token lifetime.
func (s *TokenStore) TTL() time.Duration {
	return s.ttl
}

func (s *TokenStore) redisKey(token string) string {
	return "token:" + token
}
