// Package authz implements the route authorization policy evaluated at the
// gateway edge and the identity model attached to admitted requests.
package authz

import (
	"fmt"
	"strings"
)

// RequirementKind discriminates the policy requirement variants.
type RequirementKind int

const (
	// KindPublic admits the request without a credential.
	KindPublic RequirementKind = iota
	// KindRequireScope admits only identities holding a named scope.
	KindRequireScope
	// KindRequireAuthenticated admits any valid identity.
	KindRequireAuthenticated
)

// Requirement is the tagged policy variant for a matched route.
type Requirement struct {
	Kind  RequirementKind
	Scope string
}

// Public requires no authentication.
func Public() Requirement {
	return Requirement{Kind: KindPublic}
}

// RequireScope requires a valid identity holding the given scope.
func RequireScope(scope string) Requirement {
	return Requirement{Kind: KindRequireScope, Scope: scope}
}

// RequireAuthenticated requires any valid identity, no specific scope.
func RequireAuthenticated() Requirement {
	return Requirement{Kind: KindRequireAuthenticated}
}

func (r Requirement) String() string {
	switch r.Kind {
	case KindPublic:
		return "public"
	case KindRequireScope:
		return "scope:" + r.Scope
	default:
		return "authenticated"
	}
}

// Entry binds a path pattern to a requirement. A pattern either matches a
// path exactly or, with a trailing "/**", matches the prefix and everything
// below it. An empty Methods list applies to all methods.
type Entry struct {
	Methods     []string
	Pattern     string
	Requirement Requirement
}

// Policy is an ordered route policy table. Evaluation is first-match-wins;
// a request matching no entry falls back to RequireAuthenticated. The table
// is immutable after construction and safe for concurrent use.
type Policy struct {
	entries []Entry
}

// NewPolicy builds a policy table from ordered entries.
func NewPolicy(entries ...Entry) (*Policy, error) {
	for i, e := range entries {
		if strings.TrimSpace(e.Pattern) == "" {
			return nil, fmt.Errorf("policy entry %d: pattern must not be empty", i)
		}
		if e.Kind() == KindRequireScope && e.Requirement.Scope == "" {
			return nil, fmt.Errorf("policy entry %d (%s): scope must not be empty", i, e.Pattern)
		}
	}
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return &Policy{entries: copied}, nil
}

// MustNewPolicy is NewPolicy that panics on an invalid table. Intended for
// static tables wired at startup.
func MustNewPolicy(entries ...Entry) *Policy {
	p, err := NewPolicy(entries...)
	if err != nil {
		panic(err)
	}
	return p
}

// Kind returns the entry's requirement kind.
func (e Entry) Kind() RequirementKind {
	return e.Requirement.Kind
}

// Lookup returns the requirement for a method and path. Unmatched requests
// fall back to RequireAuthenticated.
func (p *Policy) Lookup(method, path string) Requirement {
	for _, e := range p.entries {
		if !e.matchesMethod(method) {
			continue
		}
		if matchPattern(e.Pattern, path) {
			return e.Requirement
		}
	}
	return RequireAuthenticated()
}

func (e Entry) matchesMethod(method string) bool {
	if len(e.Methods) == 0 {
		return true
	}
	for _, m := range e.Methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// matchPattern matches path against pattern. A trailing "/**" matches the
// bare prefix path itself and any path below it.
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == pattern
}
