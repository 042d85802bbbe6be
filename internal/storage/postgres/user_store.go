package postgres

import (
	"context"
	"errors"
	"fmt"

	"assistant-chat/internal/domain"
	"assistant-chat/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.IsActive,
	).Scan(&u.ID)

	if err != nil {
		if uniqueViolation(err, "users_username_key") {
			return apperrors.ErrDuplicateUsername
		}
		if uniqueViolation(err, "users_email_key") {
			return apperrors.ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUser(ctx, "id = $1", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUser(ctx, "username = $1", username)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, is_active
		FROM users
		WHERE ` + where

	var u domain.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.IsActive,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}
