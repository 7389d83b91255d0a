package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/relaymesh/relaymesh/internal/authz"
	"github.com/relaymesh/relaymesh/internal/httputil"
	"github.com/relaymesh/relaymesh/internal/logging"
	"github.com/relaymesh/relaymesh/internal/token"
)

var testSecret = []byte("test-secret")

func testAuthorizer(t *testing.T) *EdgeAuthorizer {
	t.Helper()
	policy, err := authz.NewPolicy(
		authz.Entry{Pattern: "/actuator/health", Requirement: authz.Public()},
		authz.Entry{Methods: []string{http.MethodGet}, Pattern: "/users/**", Requirement: authz.RequireScope("users.read")},
		authz.Entry{Pattern: "/users/**", Requirement: authz.RequireScope("users.write")},
		authz.Entry{Pattern: "/orders/**", Requirement: authz.RequireScope("orders.write")},
	)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	logger := logging.New("test", "error", "json")
	return NewEdgeAuthorizer(policy, authz.NewVerifier(testSecret), logger)
}

func issueToken(t *testing.T, scopes ...string) string {
	t.Helper()
	signed, err := authz.NewIssuer(testSecret, "test", time.Hour).Issue("alice", scopes)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return signed
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorEnvelope {
	t.Helper()
	var envelope httputil.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response body is not an error envelope: %v", err)
	}
	return envelope
}

func TestEdgeAuthorizer_PublicRoute(t *testing.T) {
	handlerCalled := false
	handler := testAuthorizer(t).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/actuator/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !handlerCalled {
		t.Error("handler should be invoked for a public route")
	}
}

func TestEdgeAuthorizer_PublicRoute_NoIdentityAttached(t *testing.T) {
	handler := testAuthorizer(t).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authz.IdentityFrom(r.Context()); ok {
			t.Error("public route should not carry an identity")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/actuator/health", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "users.read"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestEdgeAuthorizer_MissingHeader(t *testing.T) {
	handler := testAuthorizer(t).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should never run for a rejected request")
	}))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s, want application/json", ct)
	}

	envelope := decodeEnvelope(t, rec)
	if envelope.Error != "Unauthorized" {
		t.Errorf("error = %q, want Unauthorized", envelope.Error)
	}
	if envelope.Message != DeniedMessage {
		t.Errorf("message = %q, want %q", envelope.Message, DeniedMessage)
	}
	if envelope.Status != http.StatusUnauthorized {
		t.Errorf("envelope status = %d, want 401", envelope.Status)
	}
	if _, err := time.Parse(time.RFC3339, envelope.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", envelope.Timestamp, err)
	}
}

func TestEdgeAuthorizer_InvalidToken(t *testing.T) {
	handler := testAuthorizer(t).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should never run for a rejected request")
	}))

	for _, header := range []string{"Bearer not-a-jwt", "Basic abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestEdgeAuthorizer_ExpiredToken(t *testing.T) {
	expired, err := authz.NewIssuer(testSecret, "test", -time.Hour).Issue("alice", []string{"orders.write"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	handler := testAuthorizer(t).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should never run for a rejected request")
	}))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestEdgeAuthorizer_ScopeDenied(t *testing.T) {
	// users.write alone must not grant read access.
	handler := testAuthorizer(t).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should never run for a rejected request")
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/5", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "users.write"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	envelope := decodeEnvelope(t, rec)
	if envelope.Error != "Forbidden" {
		t.Errorf("error = %q, want Forbidden", envelope.Error)
	}
	if envelope.Message != DeniedMessage {
		t.Errorf("message = %q, want %q", envelope.Message, DeniedMessage)
	}
}

func TestEdgeAuthorizer_ScopeGranted(t *testing.T) {
	var gotIdentity *authz.Identity
	handler := testAuthorizer(t).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity, _ = authz.IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	signed := issueToken(t, "users.read")
	req := httptest.NewRequest(http.MethodGet, "/users/5", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotIdentity == nil {
		t.Fatal("identity should be attached to the request context")
	}
	if gotIdentity.Principal != "alice" {
		t.Errorf("principal = %s, want alice", gotIdentity.Principal)
	}
	if gotIdentity.RawToken != signed {
		t.Error("identity should retain the raw token for relay")
	}
}

func TestEdgeAuthorizer_FallbackRequiresAuthentication(t *testing.T) {
	authorizer := testAuthorizer(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// No policy entry matches /reports: anonymous is rejected, any valid
	// identity is admitted.
	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	rec := httptest.NewRecorder()
	authorizer.Handler(ok).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous unmatched route: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t))
	rec = httptest.NewRecorder()
	authorizer.Handler(ok).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated unmatched route: status = %d, want 200", rec.Code)
	}
}

func TestCaptureAuthorization(t *testing.T) {
	var captured string
	handler := CaptureAuthorization(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = token.InboundAuthorization(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set("Authorization", "Bearer relayed-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured != "Bearer relayed-token" {
		t.Errorf("captured header = %q, want the raw inbound value", captured)
	}
}
