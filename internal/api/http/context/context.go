package context

import (
	"context"

	"github.com/dtroode/vibenotes-server/internal/model"
)

type identityKey struct{}

var _ model.ContextManager = (*Manager)(nil)

// Manager represents an HTTP request context manager for caller identities.
// It stores the identity resolved from the session cookie so that handlers
// can read it without touching the session store again.
type Manager struct{}

// NewManager creates a new context manager instance.
//
// Returns a pointer to the newly created Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetIdentityToContext stores the identity in the context.
//
// Parameters:
//   - ctx: The request context
//   - identity: The authenticated caller
//
// Returns a new context carrying the identity.
func (m *Manager) SetIdentityToContext(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentityFromContext retrieves the identity stored by SetIdentityToContext.
//
// Returns the identity and a boolean indicating if a valid identity was found.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(model.Identity)
	if !ok || identity.UserID <= 0 {
		return model.Identity{}, false
	}

	return identity, true
}
