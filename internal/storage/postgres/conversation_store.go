package postgres

import (
	"context"
	"errors"
	"fmt"

	"assistant-chat/internal/domain"
	"assistant-chat/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateConversation(ctx context.Context, userID int64, title string) (*domain.Conversation, error) {
	query := `
		INSERT INTO conversations (title, user_id)
		VALUES ($1, $2)
		RETURNING id, title, user_id, created_at, updated_at
	`

	var conv domain.Conversation
	err := s.pool.QueryRow(ctx, query, title, userID).Scan(
		&conv.ID,
		&conv.Title,
		&conv.UserID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	return &conv, nil
}

func (s *Store) GetConversation(ctx context.Context, id, userID int64) (*domain.Conversation, error) {
	query := `
		SELECT id, title, user_id, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2
	`

	var conv domain.Conversation
	err := s.pool.QueryRow(ctx, query, id, userID).Scan(
		&conv.ID,
		&conv.Title,
		&conv.UserID,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	return &conv, nil
}

func (s *Store) ListConversations(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	// NULLS LAST keeps never-updated conversations at the tail; id ASC keeps
	// insertion order on equal timestamps.
	query := `
		SELECT id, title, user_id, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC NULLS LAST, id ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Conversation, 0)
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.UserID, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		result = append(result, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	return result, nil
}

func (s *Store) AppendMessage(ctx context.Context, conversationID int64, role domain.Role, content string) (*domain.Message, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback(ctx)

	// Row lock serializes concurrent appends to the same conversation so
	// message order and the updated_at bump cannot interleave.
	var lockedID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM conversations WHERE id = $1 FOR UPDATE`,
		conversationID,
	).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("lock conversation: %w", err)
	}

	var msg domain.Message
	err = tx.QueryRow(ctx, `
		INSERT INTO messages (content, role, conversation_id, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, content, role, conversation_id, created_at
	`, content, string(role), conversationID).Scan(
		&msg.ID,
		&msg.Content,
		&msg.Role,
		&msg.ConversationID,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE conversations SET updated_at = $1 WHERE id = $2`,
		msg.CreatedAt, conversationID,
	); err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}

	return &msg, nil
}

func (s *Store) History(ctx context.Context, conversationID, userID int64) ([]domain.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, content, role, conversation_id, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Message, 0)
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.Content, &msg.Role, &msg.ConversationID, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	return result, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id, userID int64) error {
	// Messages go with the conversation via ON DELETE CASCADE.
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
