package handler

import (
	"net/http"

	"github.com/dquezada/titula/internal/middleware"
	"github.com/dquezada/titula/internal/model"
	"github.com/dquezada/titula/internal/role"
)

// HomeHandler resolves the landing path for the authenticated user.
type HomeHandler struct{}

// NewHomeHandler builds a HomeHandler.
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

type homeResponse struct {
	Path string `json:"path"`
}

// Home handles GET /home. The first configured role in precedence order
// wins; a user with no configured role gets 403.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	path, ok := role.HomeFor(identity.Roles)
	if !ok {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return
	}

	writeJSON(w, http.StatusOK, homeResponse{Path: path})
}
