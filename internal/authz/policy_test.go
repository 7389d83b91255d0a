package authz

import (
	"net/http"
	"testing"
)

func testPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := NewPolicy(
		Entry{Pattern: "/actuator/health", Requirement: Public()},
		Entry{Pattern: "/login", Requirement: Public()},
		Entry{Methods: []string{http.MethodGet}, Pattern: "/users/**", Requirement: RequireScope("users.read")},
		Entry{Pattern: "/users/**", Requirement: RequireScope("users.write")},
		Entry{Pattern: "/orders/**", Requirement: RequireScope("orders.write")},
	)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	return p
}

func TestPolicy_Lookup(t *testing.T) {
	p := testPolicy(t)

	tests := []struct {
		name   string
		method string
		path   string
		want   Requirement
	}{
		{"health is public", http.MethodGet, "/actuator/health", Public()},
		{"login is public", http.MethodPost, "/login", Public()},
		{"user read", http.MethodGet, "/users/5", RequireScope("users.read")},
		{"user list read", http.MethodGet, "/users", RequireScope("users.read")},
		{"user write", http.MethodPost, "/users", RequireScope("users.write")},
		{"user delete write", http.MethodDelete, "/users/5", RequireScope("users.write")},
		{"order write", http.MethodPost, "/orders", RequireScope("orders.write")},
		{"nested order path", http.MethodGet, "/orders/42/items", RequireScope("orders.write")},
		{"unmatched falls back", http.MethodGet, "/reports", RequireAuthenticated()},
		{"prefix must respect segment", http.MethodGet, "/usersphere", RequireAuthenticated()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Lookup(tt.method, tt.path)
			if got != tt.want {
				t.Errorf("Lookup(%s %s) = %v, want %v", tt.method, tt.path, got, tt.want)
			}
		})
	}
}

func TestPolicy_FirstMatchWins(t *testing.T) {
	p, err := NewPolicy(
		Entry{Pattern: "/users/me", Requirement: RequireAuthenticated()},
		Entry{Pattern: "/users/**", Requirement: RequireScope("users.read")},
	)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}

	if got := p.Lookup(http.MethodGet, "/users/me"); got != RequireAuthenticated() {
		t.Errorf("Lookup(/users/me) = %v, want earlier entry to win", got)
	}
	if got := p.Lookup(http.MethodGet, "/users/5"); got != RequireScope("users.read") {
		t.Errorf("Lookup(/users/5) = %v, want scope entry", got)
	}
}

func TestNewPolicy_RejectsEmptyPattern(t *testing.T) {
	_, err := NewPolicy(Entry{Pattern: "  ", Requirement: Public()})
	if err == nil {
		t.Error("NewPolicy() should reject an empty pattern")
	}
}

func TestNewPolicy_RejectsEmptyScope(t *testing.T) {
	_, err := NewPolicy(Entry{Pattern: "/x", Requirement: RequireScope("")})
	if err == nil {
		t.Error("NewPolicy() should reject a scope requirement without a scope")
	}
}

func TestIdentity_HasScope(t *testing.T) {
	id := &Identity{
		Principal: "alice",
		Scopes:    map[string]struct{}{"users.read": {}},
	}

	if !id.HasScope("users.read") {
		t.Error("HasScope(users.read) = false, want true")
	}
	if id.HasScope("users.write") {
		t.Error("HasScope(users.write) = true, want false")
	}

	var nilID *Identity
	if nilID.HasScope("users.read") {
		t.Error("nil identity should hold no scopes")
	}
}
