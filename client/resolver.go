package client

import (
	"context"
	"net/http"

	"github.com/dquezada/titula/internal/role"
)

// Resolver resolves the authenticated identity from the server. Any
// failure surfaces as an error; what to do about it (for the guard:
// clear the store) is the caller's policy.
type Resolver struct {
	client *Client
}

// NewResolver builds a Resolver over an API client.
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve calls GET /me and returns the identity with roles in
// canonical normalized form.
func (r *Resolver) Resolve(ctx context.Context) (*StoredIdentity, error) {
	var out struct {
		ID       string   `json:"id"`
		Username string   `json:"username"`
		Roles    []string `json:"roles"`
	}
	if err := r.client.Do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}

	return &StoredIdentity{
		UserID:   out.ID,
		Username: out.Username,
		Roles:    role.Normalize(out.Roles),
	}, nil
}
