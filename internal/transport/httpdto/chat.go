package httpdto

// ChatRequest is used for POST /chat/
type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID int64  `json:"conversation_id,omitempty"`
}

// ChatResponse carries the assistant reply and the conversation it landed in
type ChatResponse struct {
	Message        string `json:"message"`
	ConversationID int64  `json:"conversation_id"`
}

// ConversationDTO is a list item in GET /chat/conversations
type ConversationDTO struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// ConversationsResponse is returned by GET /chat/conversations
type ConversationsResponse struct {
	Conversations []ConversationDTO `json:"conversations"`
}

// MessageDTO is a list item in GET /chat/history/{conversation_id}
type MessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryResponse is returned by GET /chat/history/{conversation_id}
type HistoryResponse struct {
	Messages []MessageDTO `json:"messages"`
}
