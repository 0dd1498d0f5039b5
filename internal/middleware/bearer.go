// Package middleware provides the HTTP middleware chain.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dquezada/titula/internal/model"
)

// contextKey is a type-safe key for request context values.
type contextKey string

// identityContextKey stores the authenticated identity in the request
// context.
var identityContextKey = contextKey("identity")

// IdentityResolver resolves a bearer token to an identity.
// Defined as the subset of auth.Service the middleware needs.
type IdentityResolver interface {
	// IdentityByToken returns a nil identity when the token is unknown or
	// expired.
	IdentityByToken(ctx context.Context, token string) (*model.Identity, error)
}

// NewBearerMiddleware returns middleware that reads the Authorization
// header, resolves the bearer token and injects the identity into the
// request context. Requests without a valid token get 401.
func NewBearerMiddleware(resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract the bearer token
			token := BearerToken(r)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. Resolve it to an identity
			identity, err := resolver.IdentityByToken(r.Context(), token)
			if err != nil {
				slog.Error("failed to resolve bearer token",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if identity == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. Inject the identity into the context
			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// IdentityFromContext returns the authenticated identity.
// Valid only for requests that passed the bearer middleware.
func IdentityFromContext(ctx context.Context) (*model.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil {
		return nil, model.NewUnauthorizedError()
	}
	return identity, nil
}

// ContextWithIdentity injects an identity into a context.
// Used by tests and non-middleware context construction.
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
