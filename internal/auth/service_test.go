package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wattfinder/wattfinder/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(storage.NewMemory())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "s3cret", "editor")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != "editor" {
		t.Fatalf("expected editor role, got %s", u.Role)
	}

	if _, err := svc.Authenticate(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestTokenLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "bob", "pw", "viewer")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, raw, err := svc.CreateToken(ctx, u.ID, "ci", "viewer", nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	tok, err := svc.ValidateToken(ctx, raw)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if tok.UserID != u.ID {
		t.Fatalf("token belongs to %s, expected %s", tok.UserID, u.ID)
	}

	if _, err := svc.ValidateToken(ctx, "bogus"); err == nil {
		t.Fatal("expected error for unknown token")
	}

	past := time.Now().Add(-time.Hour)
	_, rawExpired, err := svc.CreateToken(ctx, u.ID, "old", "viewer", &past)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, rawExpired); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestEnforceRoles(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	editor, err := svc.Register(ctx, "ed", "pw", "editor")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	viewer, err := svc.Register(ctx, "vi", "pw", "viewer")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	cases := []struct {
		sub, obj, act string
		want          bool
	}{
		{editor.ID, "plans", "write", true},
		{editor.ID, "imports", "write", true},
		{editor.ID, "users", "write", false},
		{viewer.ID, "plans", "read", true},
		{viewer.ID, "leads", "read", true},
		{viewer.ID, "plans", "write", false},
	}
	for _, c := range cases {
		got, err := svc.Enforce(c.sub, c.obj, c.act)
		if err != nil {
			t.Fatalf("Enforce(%s,%s,%s): %v", c.sub, c.obj, c.act, err)
		}
		if got != c.want {
			t.Fatalf("Enforce(%s,%s,%s) = %v, want %v", c.sub, c.obj, c.act, got, c.want)
		}
	}
}

func TestParseExpirationDuration(t *testing.T) {
	if got, err := ParseExpirationDuration("never"); err != nil || got != nil {
		t.Fatalf("never: %v, %v", got, err)
	}
	if got, err := ParseExpirationDuration(""); err != nil || got != nil {
		t.Fatalf("empty: %v, %v", got, err)
	}

	got, err := ParseExpirationDuration("30d")
	if err != nil {
		t.Fatalf("30d: %v", err)
	}
	want := time.Now().Add(30 * 24 * time.Hour)
	if got.Before(want.Add(-time.Minute)) || got.After(want.Add(time.Minute)) {
		t.Fatalf("30d resolved to %s, expected about %s", got, want)
	}

	if _, err := ParseExpirationDuration("soon"); err == nil {
		t.Fatal("expected error for invalid format")
	}
}
