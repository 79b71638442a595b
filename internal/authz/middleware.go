package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stockroom-hq/stockroom/internal/platform/httpx"
	"github.com/stockroom-hq/stockroom/internal/shared"
)

// TokenResolver resolves a bearer token to a caller identity.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*shared.Identity, error)
}

// Middleware wires authentication and the access policy for HTTP handlers.
type Middleware struct {
	Tokens TokenResolver
	Policy Policy
	Logger *slog.Logger
}

// Authenticate resolves the bearer token when present and stores the identity
// in the request context. Anonymous requests pass through unchanged; denial
// is Require's job.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || m.Tokens == nil {
			next.ServeHTTP(w, r)
			return
		}
		id, err := m.Tokens.Resolve(r.Context(), token)
		if err != nil {
			if !errors.Is(err, shared.ErrUnauthorized) && m.Logger != nil {
				m.Logger.Error("resolve token", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require rejects anonymous callers and consults the policy for the given
// entity and action.
func (m Middleware) Require(entity string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := shared.IdentityFromContext(r.Context())
			if id == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			policy := m.Policy
			if policy == nil {
				policy = UniformPolicy{}
			}
			if !policy.Allow(entity, action) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
