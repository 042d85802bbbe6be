package handler

import (
	"net/http"
	"strconv"
	"time"

	"assistant-chat/internal/middleware"
	"assistant-chat/internal/services"
	"assistant-chat/internal/transport/httpdto"
	"assistant-chat/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles chat HTTP endpoints.
type ChatHandler struct {
	service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Chat runs one chat turn, creating a conversation when none is given.
func (h *ChatHandler) Chat(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthenticated)
		return
	}

	var req httpdto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.ErrInvalidInput)
		return
	}

	result, err := h.service.Chat(c.Request.Context(), u.ID, req.ConversationID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.ChatResponse{
		Message:        result.Reply,
		ConversationID: result.ConversationID,
	})
}

// Conversations lists the caller's conversations, newest-updated first.
func (h *ChatHandler) Conversations(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthenticated)
		return
	}

	convs, err := h.service.ListConversations(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]httpdto.ConversationDTO, len(convs))
	for i, conv := range convs {
		items[i] = httpdto.ConversationDTO{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, httpdto.ConversationsResponse{Conversations: items})
}

// History returns a conversation's messages in chronological order.
func (h *ChatHandler) History(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthenticated)
		return
	}

	conversationID, err := strconv.ParseInt(c.Param("conversation_id"), 10, 64)
	if err != nil {
		writeError(c, apperrors.ErrNotFound)
		return
	}

	messages, err := h.service.History(c.Request.Context(), conversationID, u.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]httpdto.MessageDTO, len(messages))
	for i, msg := range messages {
		items[i] = httpdto.MessageDTO{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	c.JSON(http.StatusOK, httpdto.HistoryResponse{Messages: items})
}

// DeleteConversation removes a conversation and its messages.
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthenticated)
		return
	}

	conversationID, err := strconv.ParseInt(c.Param("conversation_id"), 10, 64)
	if err != nil {
		writeError(c, apperrors.ErrNotFound)
		return
	}

	if err := h.service.DeleteConversation(c.Request.Context(), conversationID, u.ID); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
