package middleware

import (
	"log/slog"
	"net/http"

	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/role"
)

// RequireRoles returns middleware gating a route subtree to the given
// allowed-role set. The decision is an exact-match intersection of the
// identity's normalized roles with the allowed set: non-empty lets the
// request through, empty yields 403. Must be mounted after the bearer
// middleware; a request with no identity gets 401.
func RequireRoles(allowed ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if !role.Intersects(identity.Roles, allowed) {
				slog.Warn("role gate denied",
					slog.String("user_id", identity.UserID),
					slog.String("path", r.URL.Path),
					slog.Any("roles", identity.Roles),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
