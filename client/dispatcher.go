package client

import (
	"context"

	"github.com/dquezada/titula/internal/role"
)

// LoginPath is the surface shown when no usable session exists.
const LoginPath = "/login"

// Dispatcher resolves the landing path for the current session: the
// first configured role in precedence order wins.
type Dispatcher struct {
	store    *TokenStore
	resolver IdentityResolver
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(store *TokenStore, resolver IdentityResolver) *Dispatcher {
	return &Dispatcher{store: store, resolver: resolver}
}

// Dispatch returns the path to land on. No token yields the login
// surface. A resolution failure or an identity with no configured role
// clears the store and yields the login surface.
func (d *Dispatcher) Dispatch(ctx context.Context) (string, error) {
	token, err := d.store.Token()
	if err != nil {
		return "", err
	}
	if token == "" {
		return LoginPath, nil
	}

	identity, err := d.resolver.Resolve(ctx)
	if err != nil {
		if clearErr := d.store.Clear(); clearErr != nil {
			return "", clearErr
		}
		return LoginPath, nil
	}

	path, ok := role.HomeFor(identity.Roles)
	if !ok {
		if clearErr := d.store.Clear(); clearErr != nil {
			return "", clearErr
		}
		return LoginPath, nil
	}

	return path, nil
}
