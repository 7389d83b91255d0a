package middleware

import (
	"net/http"

	"github.com/relaymesh/relaymesh/internal/authz"
	"github.com/relaymesh/relaymesh/internal/httputil"
	"github.com/relaymesh/relaymesh/internal/token"
)

// CaptureAuthorization stores the raw inbound Authorization header in the
// request context so the token resolver can fall back to it when no
// validated identity is present. The header value itself is not validated
// here; downstream services re-validate at their own edge.
func CaptureAuthorization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := token.WithInboundAuthorization(r.Context(), r.Header.Get("Authorization"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireIdentity rejects requests whose context carries no validated
// identity. Use behind the edge authorizer for handlers that must never run
// anonymously regardless of policy table wiring.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authz.IdentityFrom(r.Context()); !ok {
			httputil.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", DeniedMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}
