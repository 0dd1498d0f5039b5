package client

import (
	"context"
	"sync"

	"github.com/dquezada/titula/internal/role"
)

// GuardState is the observable state of a route guard.
type GuardState string

const (
	// GuardNoToken means no token is stored; the caller should show the
	// login surface.
	GuardNoToken GuardState = "no_token"
	// GuardResolving means the identity check is in flight. Neither the
	// allowed nor the denied outcome may be shown yet.
	GuardResolving GuardState = "resolving"
	// GuardAllowed means the identity holds at least one allowed role.
	GuardAllowed GuardState = "allowed"
	// GuardDenied means the identity holds none of the allowed roles,
	// or resolution failed.
	GuardDenied GuardState = "denied"
)

// IdentityResolver resolves the current identity. *Resolver implements
// it.
type IdentityResolver interface {
	Resolve(ctx context.Context) (*StoredIdentity, error)
}

// Guard gates access to a role-protected surface. Evaluate resolves the
// identity once per call; State is observable throughout, so a caller
// polling from another goroutine sees GuardResolving while the check is
// in flight rather than a flash of either outcome.
type Guard struct {
	store    *TokenStore
	resolver IdentityResolver
	allowed  []string

	mu    sync.Mutex
	state GuardState
}

// NewGuard builds a Guard for the given allowed-role set. Allowed roles
// are normalized once up front.
func NewGuard(store *TokenStore, resolver IdentityResolver, allowed []string) *Guard {
	return &Guard{
		store:    store,
		resolver: resolver,
		allowed:  role.Normalize(allowed),
		state:    GuardNoToken,
	}
}

// State returns the guard's current state.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) setState(s GuardState) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// Evaluate runs the guard decision: no token yields GuardNoToken
// immediately; otherwise the identity is resolved and intersected with
// the allowed set. A resolution failure clears the store and denies.
func (g *Guard) Evaluate(ctx context.Context) (GuardState, error) {
	token, err := g.store.Token()
	if err != nil {
		return GuardDenied, err
	}
	if token == "" {
		g.setState(GuardNoToken)
		return GuardNoToken, nil
	}

	g.setState(GuardResolving)

	identity, err := g.resolver.Resolve(ctx)
	if err != nil {
		// the session is unusable; the client may already have cleared
		// the store on a 401, clearing again is harmless
		if clearErr := g.store.Clear(); clearErr != nil {
			g.setState(GuardDenied)
			return GuardDenied, clearErr
		}
		g.setState(GuardDenied)
		return GuardDenied, err
	}

	if role.Intersects(identity.Roles, g.allowed) {
		g.setState(GuardAllowed)
		return GuardAllowed, nil
	}

	g.setState(GuardDenied)
	return GuardDenied, nil
}
