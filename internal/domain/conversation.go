package domain

import "time"

// Conversation is owned by exactly one user. UpdatedAt stays nil until the
// first message is appended; for ordering, nil sorts older than any set value.
type Conversation struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	UserID    int64      `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
