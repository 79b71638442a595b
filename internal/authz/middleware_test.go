package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/shared"
)

type staticResolver struct {
	tokens map[string]*shared.Identity
}

func (r staticResolver) Resolve(ctx context.Context, token string) (*shared.Identity, error) {
	if id, ok := r.tokens[token]; ok {
		return id, nil
	}
	return nil, shared.ErrUnauthorized
}

func TestAnonymousDenied(t *testing.T) {
	m := Middleware{Tokens: staticResolver{}, Policy: UniformPolicy{}}
	srv := m.Authenticate(m.Require("product", ActionRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownTokenDenied(t *testing.T) {
	m := Middleware{Tokens: staticResolver{}, Policy: UniformPolicy{}}
	srv := m.Authenticate(m.Require("product", ActionRead)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatedCallerAllowedEverything(t *testing.T) {
	resolver := staticResolver{tokens: map[string]*shared.Identity{
		"valid": {UserID: 7, Email: "ops@example.com"},
	}}
	m := Middleware{Tokens: resolver, Policy: UniformPolicy{}}

	// The uniform policy has no per-entity or per-action distinctions.
	cases := []struct {
		entity string
		action Action
	}{
		{"product", ActionRead},
		{"product", ActionDelete},
		{"stock", ActionCreate},
		{"purchase_order", ActionUpdate},
	}
	for _, tc := range cases {
		var seen *shared.Identity
		srv := m.Authenticate(m.Require(tc.entity, tc.action)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = shared.IdentityFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})))

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer valid")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		require.Equal(t, int64(7), seen.UserID)
	}
}

func TestBearerTokenParsing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "Basic abc123")
	require.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "bearer abc123")
	require.Equal(t, "abc123", bearerToken(req))
}
