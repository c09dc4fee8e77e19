package httpx

import (
	"context"

	"github.com/chatgrid/realtime-api/internal/domain/identity"
)

// identityKey is an unexported context key type to avoid collisions across
// packages. Centralized here so all handlers and middleware use the same key.
type identityKey struct{}

// SetIdentityInContext returns a child context carrying the resolved
// identity. A nil identity returns the original ctx unchanged.
func SetIdentityInContext(ctx context.Context, id *identity.Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// GetIdentityFromContext returns the resolved identity and a boolean
// indicating presence.
func GetIdentityFromContext(ctx context.Context) (*identity.Identity, bool) {
	if id, ok := ctx.Value(identityKey{}).(*identity.Identity); ok && id != nil {
		return id, true
	}
	return nil, false
}

// IsAnonymous reports whether the request context carries no identity.
func IsAnonymous(ctx context.Context) bool {
	_, ok := GetIdentityFromContext(ctx)
	return !ok
}
