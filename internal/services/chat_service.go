package services

import (
	"context"
	"sync"

	"assistant-chat/internal/domain"
	"assistant-chat/internal/storage"
)

const titleLimit = 30

// Replier synthesizes the assistant's answer to a user message. The echo
// implementation stands in for a real generation backend; swapping it out
// does not change the orchestration contract around it.
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// EchoReplier restates the input message.
type EchoReplier struct{}

func (EchoReplier) Reply(ctx context.Context, message string) (string, error) {
	return "You said: " + message, nil
}

// ChatService orchestrates a chat turn: resolve or create the conversation,
// record the user message, synthesize a reply, record the assistant message.
// All durable state lives in the store.
type ChatService struct {
	store   storage.ConversationStore
	replier Replier

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewChatService(store storage.ConversationStore, replier Replier) *ChatService {
	if replier == nil {
		replier = EchoReplier{}
	}
	return &ChatService{
		store:   store,
		replier: replier,
		locks:   make(map[int64]*sync.Mutex),
	}
}

type ChatResult struct {
	Reply          string
	ConversationID int64
}

// Chat runs one turn for the user. When conversationID is zero a new
// conversation is created, titled from the message. If the reply synthesis
// or the assistant append fails, the already-recorded user message stands;
// there is no compensation.
func (s *ChatService) Chat(ctx context.Context, userID, conversationID int64, message string) (*ChatResult, error) {
	var conv *domain.Conversation
	var err error

	if conversationID != 0 {
		conv, err = s.store.GetConversation(ctx, conversationID, userID)
	} else {
		conv, err = s.store.CreateConversation(ctx, userID, titleFromMessage(message))
	}
	if err != nil {
		return nil, err
	}

	// Serialize turns per conversation so concurrent calls cannot interleave
	// their user/assistant append pairs.
	lock := s.conversationLock(conv.ID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.AppendMessage(ctx, conv.ID, domain.RoleUser, message); err != nil {
		return nil, err
	}

	reply, err := s.replier.Reply(ctx, message)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.AppendMessage(ctx, conv.ID, domain.RoleAssistant, reply); err != nil {
		return nil, err
	}

	return &ChatResult{Reply: reply, ConversationID: conv.ID}, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	return s.store.ListConversations(ctx, userID)
}

func (s *ChatService) History(ctx context.Context, conversationID, userID int64) ([]domain.Message, error) {
	return s.store.History(ctx, conversationID, userID)
}

func (s *ChatService) DeleteConversation(ctx context.Context, conversationID, userID int64) error {
	return s.store.DeleteConversation(ctx, conversationID, userID)
}

func (s *ChatService) conversationLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// titleFromMessage derives a conversation title from the first message:
// the message itself, or its first 30 characters followed by "..." when
// longer.
func titleFromMessage(message string) string {
	runes := []rune(message)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit]) + "..."
	}
	return message
}
