package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_RegisterAndActive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	hash := HashToken("some-token")

	if err := store.Register(ctx, hash, "alice", time.Minute); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	principal, active, err := store.Active(ctx, hash)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if !active {
		t.Fatal("session should be active")
	}
	if principal != "alice" {
		t.Errorf("principal = %s, want alice", principal)
	}
}

func TestMemoryStore_Revoke(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	hash := HashToken("some-token")

	if err := store.Register(ctx, hash, "alice", time.Minute); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := store.Revoke(ctx, hash); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	_, active, err := store.Active(ctx, hash)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active {
		t.Error("revoked session should not be active")
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	hash := HashToken("some-token")

	if err := store.Register(ctx, hash, "alice", -time.Second); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, active, err := store.Active(ctx, hash)
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active {
		t.Error("expired session should not be active")
	}
}

func TestMemoryStore_UnknownToken(t *testing.T) {
	store := NewMemoryStore()

	_, active, err := store.Active(context.Background(), HashToken("never-issued"))
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if active {
		t.Error("unknown token should not be active")
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	a := HashToken("token")
	b := HashToken("token")
	c := HashToken("other")

	if a != b {
		t.Error("HashToken should be deterministic")
	}
	if a == c {
		t.Error("different tokens should hash differently")
	}
	if a == "token" {
		t.Error("raw token must not be used as the key")
	}
}
