// Package middleware provides HTTP middleware for the relay mesh services.
package middleware

import (
	"net/http"
	"strings"

	"github.com/relaymesh/relaymesh/internal/authz"
	"github.com/relaymesh/relaymesh/internal/errors"
	"github.com/relaymesh/relaymesh/internal/httputil"
	"github.com/relaymesh/relaymesh/internal/logging"
)

// DeniedMessage is the message body sent with every edge rejection.
const DeniedMessage = "Access denied by API Gateway security policy"

// EdgeAuthorizer gates every inbound request against the route policy table
// before it reaches a handler. Authorization decisions are deterministic and
// side-effect-free aside from the rejection response write.
type EdgeAuthorizer struct {
	policy   *authz.Policy
	verifier *authz.Verifier
	logger   *logging.Logger
}

// NewEdgeAuthorizer creates the edge authorization middleware.
func NewEdgeAuthorizer(policy *authz.Policy, verifier *authz.Verifier, logger *logging.Logger) *EdgeAuthorizer {
	return &EdgeAuthorizer{
		policy:   policy,
		verifier: verifier,
		logger:   logger,
	}
}

// Handler returns the middleware handler.
func (m *EdgeAuthorizer) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requirement := m.policy.Lookup(r.Method, r.URL.Path)

		// Public routes are admitted unconditionally, no identity attached.
		if requirement.Kind == authz.KindPublic {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.reject(w, r, http.StatusUnauthorized, "Unauthorized", errors.Unauthorized("Missing Authorization header"))
			return
		}

		rawToken, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			m.reject(w, r, http.StatusUnauthorized, "Unauthorized", errors.Unauthorized("Invalid Authorization header format"))
			return
		}

		identity, err := m.verifier.Verify(strings.TrimSpace(rawToken))
		if err != nil {
			// Malformed and expired tokens fold into 401; the distinct
			// cause is kept in the log.
			m.reject(w, r, http.StatusUnauthorized, "Unauthorized", err)
			return
		}

		if requirement.Kind == authz.KindRequireScope && !identity.HasScope(requirement.Scope) {
			m.reject(w, r, http.StatusForbidden, "Forbidden",
				errors.Forbidden("Missing required scope").WithDetails("scope", requirement.Scope))
			return
		}

		ctx := authz.WithIdentity(r.Context(), identity)
		ctx = logging.WithUserID(ctx, identity.Principal)

		m.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"principal":   identity.Principal,
			"requirement": requirement.String(),
		}).Debug("request authorized")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reject writes the uniform error envelope and stops request processing;
// the handler is never invoked.
func (m *EdgeAuthorizer) reject(w http.ResponseWriter, r *http.Request, status int, errText string, cause error) {
	m.logger.WithContext(r.Context()).WithError(cause).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": status,
	}).Warn("request rejected")

	httputil.WriteErrorResponse(w, status, errText, DeniedMessage)
}
