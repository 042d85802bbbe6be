package domain

import "time"

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message belongs to exactly one conversation and is append-only.
// Deleting a conversation cascades to its messages.
type Message struct {
	ID             int64     `json:"id"`
	Content        string    `json:"content"`
	Role           Role      `json:"role"`
	ConversationID int64     `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}
