package authz

import "context"

// Identity is the validated caller attached to a request context by the
// edge authorizer. It lives for a single request and is never shared.
type Identity struct {
	Principal string
	Scopes    map[string]struct{}
	RawToken  string
}

// HasScope reports whether the identity holds the named scope.
func (id *Identity) HasScope(scope string) bool {
	if id == nil {
		return false
	}
	_, ok := id.Scopes[scope]
	return ok
}

// ScopeList returns the identity's scopes as a slice, for logging.
func (id *Identity) ScopeList() []string {
	if id == nil {
		return nil
	}
	out := make([]string, 0, len(id.Scopes))
	for s := range id.Scopes {
		out = append(out, s)
	}
	return out
}

type contextKey string

const identityKey contextKey = "authz.identity"

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the identity from a context, if present.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}
