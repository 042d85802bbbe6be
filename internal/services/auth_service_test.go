package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"assistant-chat/internal/storage/jsonfile"
	"assistant-chat/pkg/apperrors"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	store, err := jsonfile.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	tokens := NewTokenService("test-secret", 7*24*time.Hour)
	return NewAuthService(store, tokens, nil)
}

func TestRegister_HashesPassword(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected assigned user id")
	}
	if !u.IsActive {
		t.Error("expected new user to be active")
	}
	if u.PasswordHash == "s3cret" || strings.Contains(u.PasswordHash, "s3cret") {
		t.Error("plaintext password reached the store")
	}
	if !strings.HasPrefix(u.PasswordHash, "$2") {
		t.Errorf("expected bcrypt hash, got %q", u.PasswordHash)
	}
}

func TestRegister_Duplicates(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "fresh@example.com", Password: "pw"})
	if !errors.Is(err, apperrors.ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "alice@example.com", Password: "pw"})
	if !errors.Is(err, apperrors.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "s3cret"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := svc.Login(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	got, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("token resolved to user %d, expected %d", got.ID, u.ID)
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "s3cret"); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestAuthenticate_UnknownSubject(t *testing.T) {
	svc := newAuthService(t)
	token, err := svc.tokens.Issue(9999)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}
