// Package storage defines the persistence contracts shared by the Postgres
// and file-backed implementations. Both backends expose the same logical
// model: integer ids, unique usernames/emails, owner-scoped conversations.
package storage

import (
	"context"

	"assistant-chat/internal/domain"
)

// UserStore persists account records.
type UserStore interface {
	// CreateUser assigns an id and stores the user. It fails with
	// apperrors.ErrDuplicateUsername or apperrors.ErrDuplicateEmail when a
	// uniqueness constraint is violated; the username check wins when both
	// collide.
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// ConversationStore persists conversations and their messages.
//
// Lookups taking a userID are owner-scoped: a conversation that exists but
// belongs to someone else is reported with apperrors.ErrNotFound, identical
// to one that does not exist.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID int64, title string) (*domain.Conversation, error)
	GetConversation(ctx context.Context, id, userID int64) (*domain.Conversation, error)
	// ListConversations returns the user's conversations ordered by
	// updated_at descending; conversations never updated sort last, ties
	// keep insertion order.
	ListConversations(ctx context.Context, userID int64) ([]domain.Conversation, error)
	// AppendMessage stores a message and refreshes the parent conversation's
	// updated_at to the message's created_at, atomically. Concurrent appends
	// to the same conversation are serialized.
	AppendMessage(ctx context.Context, conversationID int64, role domain.Role, content string) (*domain.Message, error)
	// History returns the conversation's messages ordered by created_at
	// ascending, id as tiebreaker.
	History(ctx context.Context, conversationID, userID int64) ([]domain.Message, error)
	// DeleteConversation removes a conversation and cascades to its messages.
	DeleteConversation(ctx context.Context, id, userID int64) error
}

// Store bundles both stores; each backend implements the full set.
type Store interface {
	UserStore
	ConversationStore
	Close() error
}
