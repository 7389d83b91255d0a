// Package token resolves the bearer token that authenticated the current
// request so it can be relayed on outbound service-to-service calls.
package token

import (
	"context"
	"strings"

	"github.com/relaymesh/relaymesh/internal/authz"
	"github.com/relaymesh/relaymesh/internal/errors"
)

const bearerPrefix = "Bearer "

// ErrMissingTokenMessage is the diagnostic surfaced when no caller token can
// be resolved for a relayed call.
const ErrMissingTokenMessage = "missing authentication token for relayed service call"

// Source produces an optional bearer token for the current request context.
// Sources are tried in order; the first non-empty result wins.
type Source interface {
	Token(ctx context.Context) (string, bool)
}

// IdentitySource reads the raw token off a validated identity in context.
// This is the fast path when the edge authorizer already ran.
type IdentitySource struct{}

func (IdentitySource) Token(ctx context.Context) (string, bool) {
	id, ok := authz.IdentityFrom(ctx)
	if !ok {
		return "", false
	}
	return normalized(id.RawToken)
}

// HeaderSource reads the inbound Authorization header captured into the
// context by the ingress middleware. It covers code paths where no identity
// was populated but the original header is still available.
type HeaderSource struct{}

func (HeaderSource) Token(ctx context.Context) (string, bool) {
	return normalized(InboundAuthorization(ctx))
}

// Resolver tries an ordered list of credential sources.
type Resolver struct {
	sources []Source
}

// NewResolver creates a resolver over the given sources, in priority order.
func NewResolver(sources ...Source) *Resolver {
	return &Resolver{sources: sources}
}

// Default returns the standard two-source resolver: validated identity
// first, raw inbound header second.
func Default() *Resolver {
	return NewResolver(IdentitySource{}, HeaderSource{})
}

// Resolve returns the normalized bearer token for the current request.
// When no source yields a token it fails with a MissingToken error; callers
// must not proceed with an outbound call in that case.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	for _, src := range r.sources {
		if tok, ok := src.Token(ctx); ok {
			return tok, nil
		}
	}
	return "", errors.MissingToken(ErrMissingTokenMessage)
}

// Normalize strips a literal "Bearer " prefix (case-sensitive, as issued)
// and surrounding whitespace. Normalization is idempotent. The prefix is
// stripped before trimming so a header carrying only the scheme normalizes
// to empty rather than surviving as the literal word "Bearer".
func Normalize(raw string) string {
	raw = strings.TrimPrefix(raw, bearerPrefix)
	raw = strings.TrimSpace(raw)
	if raw == "Bearer" {
		return ""
	}
	return raw
}

// normalized applies Normalize and treats an empty result as absent.
func normalized(raw string) (string, bool) {
	tok := Normalize(raw)
	return tok, tok != ""
}

type contextKey string

const inboundAuthKey contextKey = "token.inbound_authorization"

// WithInboundAuthorization returns a context carrying the raw Authorization
// header of the currently inbound HTTP request.
func WithInboundAuthorization(ctx context.Context, header string) context.Context {
	if header == "" {
		return ctx
	}
	return context.WithValue(ctx, inboundAuthKey, header)
}

// InboundAuthorization extracts the captured Authorization header, if any.
func InboundAuthorization(ctx context.Context) string {
	if v, ok := ctx.Value(inboundAuthKey).(string); ok {
		return v
	}
	return ""
}
