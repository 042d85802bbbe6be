// Package jsonfile implements storage.Store on top of plain JSON files,
// one per entity type, each carrying its records and a next-id counter.
// The layout is load-once, save-on-mutation; saves go through a temp file
// and rename so a failed write never leaves a half-written file behind.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"assistant-chat/internal/domain"
	"assistant-chat/pkg/apperrors"
)

const (
	usersFile         = "users.json"
	conversationsFile = "conversations.json"
	messagesFile      = "messages.json"
)

type usersDocument struct {
	Users  map[int64]*domain.User `json:"users"`
	NextID int64                  `json:"next_id"`
}

type conversationsDocument struct {
	Conversations map[int64]*domain.Conversation `json:"conversations"`
	NextID        int64                          `json:"next_id"`
}

type messagesDocument struct {
	Messages map[int64]*domain.Message `json:"messages"`
	NextID   int64                     `json:"next_id"`
}

type Store struct {
	mu  sync.RWMutex
	dir string

	users         map[int64]*domain.User
	conversations map[int64]*domain.Conversation
	messages      map[int64]*domain.Message

	nextUserID         int64
	nextConversationID int64
	nextMessageID      int64

	now func() time.Time
}

// New loads existing data from dir, creating it when absent.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		dir:                dir,
		users:              make(map[int64]*domain.User),
		conversations:      make(map[int64]*domain.Conversation),
		messages:           make(map[int64]*domain.Message),
		nextUserID:         1,
		nextConversationID: 1,
		nextMessageID:      1,
		now:                func() time.Time { return time.Now().UTC() },
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	var users usersDocument
	ok, err := readDocument(filepath.Join(s.dir, usersFile), &users)
	if err != nil {
		return err
	}
	if ok {
		s.users = users.Users
		s.nextUserID = users.NextID
	}

	var convs conversationsDocument
	ok, err = readDocument(filepath.Join(s.dir, conversationsFile), &convs)
	if err != nil {
		return err
	}
	if ok {
		s.conversations = convs.Conversations
		s.nextConversationID = convs.NextID
	}

	var msgs messagesDocument
	ok, err = readDocument(filepath.Join(s.dir, messagesFile), &msgs)
	if err != nil {
		return err
	}
	if ok {
		s.messages = msgs.Messages
		s.nextMessageID = msgs.NextID
	}

	if s.users == nil {
		s.users = make(map[int64]*domain.User)
	}
	if s.conversations == nil {
		s.conversations = make(map[int64]*domain.Conversation)
	}
	if s.messages == nil {
		s.messages = make(map[int64]*domain.Message)
	}
	return nil
}

func readDocument(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func writeDocument(path string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) saveUsers() error {
	return writeDocument(filepath.Join(s.dir, usersFile), usersDocument{
		Users:  s.users,
		NextID: s.nextUserID,
	})
}

func (s *Store) saveConversations() error {
	return writeDocument(filepath.Join(s.dir, conversationsFile), conversationsDocument{
		Conversations: s.conversations,
		NextID:        s.nextConversationID,
	})
}

func (s *Store) saveMessages() error {
	return writeDocument(filepath.Join(s.dir, messagesFile), messagesDocument{
		Messages: s.messages,
		NextID:   s.nextMessageID,
	})
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return apperrors.ErrDuplicateUsername
		}
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperrors.ErrDuplicateEmail
		}
	}

	u.ID = s.nextUserID
	s.users[u.ID] = u
	s.nextUserID++

	if err := s.saveUsers(); err != nil {
		delete(s.users, u.ID)
		s.nextUserID--
		return fmt.Errorf("persist users: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *Store) CreateConversation(ctx context.Context, userID int64, title string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := &domain.Conversation{
		ID:        s.nextConversationID,
		Title:     title,
		UserID:    userID,
		CreatedAt: s.now(),
	}
	s.conversations[conv.ID] = conv
	s.nextConversationID++

	if err := s.saveConversations(); err != nil {
		delete(s.conversations, conv.ID)
		s.nextConversationID--
		return nil, fmt.Errorf("persist conversations: %w", err)
	}

	copied := *conv
	return &copied, nil
}

func (s *Store) GetConversation(ctx context.Context, id, userID int64) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok || conv.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	copied := *conv
	return &copied, nil
}

func (s *Store) ListConversations(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Conversation, 0)
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			result = append(result, *conv)
		}
	}

	// Insertion order first, then a stable sort on updated_at keeps it as
	// the tiebreaker. Unset updated_at sorts older than any set value.
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].UpdatedAt, result[j].UpdatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return result, nil
}

func (s *Store) AppendMessage(ctx context.Context, conversationID int64, role domain.Role, content string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	now := s.now()
	msg := &domain.Message{
		ID:             s.nextMessageID,
		Content:        content,
		Role:           role,
		ConversationID: conversationID,
		CreatedAt:      now,
	}

	prevUpdated := conv.UpdatedAt
	s.messages[msg.ID] = msg
	s.nextMessageID++
	conv.UpdatedAt = &now

	if err := s.saveMessages(); err != nil {
		delete(s.messages, msg.ID)
		s.nextMessageID--
		conv.UpdatedAt = prevUpdated
		return nil, fmt.Errorf("persist messages: %w", err)
	}
	if err := s.saveConversations(); err != nil {
		delete(s.messages, msg.ID)
		s.nextMessageID--
		conv.UpdatedAt = prevUpdated
		// Bring messages.json back in line with memory.
		if saveErr := s.saveMessages(); saveErr != nil {
			return nil, fmt.Errorf("persist conversations: %w (messages rollback failed: %v)", err, saveErr)
		}
		return nil, fmt.Errorf("persist conversations: %w", err)
	}

	copied := *msg
	return &copied, nil
}

func (s *Store) History(ctx context.Context, conversationID, userID int64) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok || conv.UserID != userID {
		return nil, apperrors.ErrNotFound
	}

	result := make([]domain.Message, 0)
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID {
			result = append(result, *msg)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok || conv.UserID != userID {
		return apperrors.ErrNotFound
	}

	removed := make(map[int64]*domain.Message)
	for msgID, msg := range s.messages {
		if msg.ConversationID == id {
			removed[msgID] = msg
			delete(s.messages, msgID)
		}
	}
	delete(s.conversations, id)

	if err := s.saveConversations(); err != nil {
		s.conversations[id] = conv
		for msgID, msg := range removed {
			s.messages[msgID] = msg
		}
		return fmt.Errorf("persist conversations: %w", err)
	}
	if err := s.saveMessages(); err != nil {
		return fmt.Errorf("persist messages: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
