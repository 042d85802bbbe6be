package services

import (
	"context"
	"errors"
	"strings"

	"assistant-chat/internal/cache"
	"assistant-chat/internal/domain"
	"assistant-chat/internal/storage"
	"assistant-chat/pkg/apperrors"

	"golang.org/x/crypto/bcrypt"
)

// AuthService owns registration, credential verification and user lookups.
// The optional cache shortcuts per-request user loads on authenticated
// endpoints; a nil cache falls through to the store.
type AuthService struct {
	users  storage.UserStore
	tokens *TokenService
	cache  *cache.Store
}

func NewAuthService(users storage.UserStore, tokens *TokenService, userCache *cache.Store) *AuthService {
	return &AuthService{users: users, tokens: tokens, cache: userCache}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func validateRegister(in RegisterInput) error {
	if in.Username == "" || in.Password == "" {
		return apperrors.ErrInvalidInput
	}
	if !strings.Contains(in.Email, "@") {
		return apperrors.ErrInvalidInput
	}
	return nil
}

// Register creates a user. The plaintext password never reaches the store.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := validateRegister(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns a bearer token for the user.
// Unknown usernames and wrong passwords are reported identically.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrInvalidCredentials
		}
		return "", err
	}

	// bcrypt's comparison is constant-time over the digest.
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	return s.tokens.Issue(u.ID)
}

// GetUserByID resolves a user, read-through cached when a cache is wired.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetUser(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetUser(ctx, u)
	}
	return u, nil
}

// Authenticate resolves the user behind a bearer token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, err
	}
	return u, nil
}
