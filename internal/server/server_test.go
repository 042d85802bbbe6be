package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"assistant-chat/config"
	"assistant-chat/internal/handler"
	"assistant-chat/internal/services"
	"assistant-chat/internal/storage/jsonfile"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := jsonfile.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		AppPort:     "0",
		AppMode:     TestMode,
		APIBasePath: "/api/v1",
	}

	tokens := services.NewTokenService("test-secret", 7*24*time.Hour)
	authService := services.NewAuthService(store, tokens, nil)
	chatService := services.NewChatService(store, services.EchoReplier{})

	srv := New(cfg, nil)
	srv.SetupRoutes(&Handlers{
		Auth: handler.NewAuthHandler(authService),
		Chat: handler.NewChatHandler(chatService),
	}, authService, nil)

	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, srv *Server, username, email string) {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", "",
		`{"username":"`+username+`","email":"`+email+`","password":"s3cret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: status %d: %s", username, rec.Code, rec.Body.String())
	}
}

func login(t *testing.T, srv *Server, username string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {"s3cret"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", username, rec.Code, rec.Body.String())
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if body.TokenType != "bearer" {
		t.Errorf("expected token_type bearer, got %q", body.TokenType)
	}
	return body.AccessToken
}

func TestRegisterLoginMe(t *testing.T) {
	srv := newTestServer(t)

	register(t, srv, "alice", "alice@example.com")
	token := login(t, srv, "alice")

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/auth/me", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d: %s", rec.Code, rec.Body.String())
	}
	var me struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&me); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if me.Username != "alice" || me.Email != "alice@example.com" || me.ID == 0 {
		t.Errorf("unexpected me response: %+v", me)
	}
}

func TestRegister_DuplicateIs400WithStableCode(t *testing.T) {
	srv := newTestServer(t)

	register(t, srv, "alice", "alice@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", "",
		`{"username":"alice","email":"new@example.com","password":"pw"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if body.Code != "DUPLICATE_USERNAME" {
		t.Errorf("expected code DUPLICATE_USERNAME, got %q", body.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/auth/register", "",
		`{"username":"bob","email":"alice@example.com","password":"pw"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if body.Code != "DUPLICATE_EMAIL" {
		t.Errorf("expected code DUPLICATE_EMAIL, got %q", body.Code)
	}
}

func TestLogin_WrongPasswordIs401(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice", "alice@example.com")

	form := url.Values{"username": {"alice"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/chat/"},
		{http.MethodGet, "/api/v1/chat/conversations"},
		{http.MethodGet, "/api/v1/chat/history/1"},
	} {
		rec := doJSON(t, srv, tc.method, tc.path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestChatFlow(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice", "alice@example.com")
	token := login(t, srv, "alice")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat/", token, `{"message":"Hello there, how are you doing today?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat: status %d: %s", rec.Code, rec.Body.String())
	}
	var chat struct {
		Message        string `json:"message"`
		ConversationID int64  `json:"conversation_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&chat); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	if chat.Message != "You said: Hello there, how are you doing today?" {
		t.Errorf("unexpected reply: %q", chat.Message)
	}
	if chat.ConversationID == 0 {
		t.Fatal("expected conversation id")
	}

	// Second turn in the same conversation.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/chat/", token,
		`{"message":"Hi","conversation_id":`+strconv.FormatInt(chat.ConversationID, 10)+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("second chat: status %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/chat/conversations", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("conversations: status %d", rec.Code)
	}
	var convs struct {
		Conversations []struct {
			ID        int64  `json:"id"`
			Title     string `json:"title"`
			CreatedAt string `json:"created_at"`
		} `json:"conversations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&convs); err != nil {
		t.Fatalf("decode conversations: %v", err)
	}
	if len(convs.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs.Conversations))
	}
	if convs.Conversations[0].Title != "Hello there, how are you doing..." {
		t.Errorf("unexpected title: %q", convs.Conversations[0].Title)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/chat/history/"+strconv.FormatInt(chat.ConversationID, 10), token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status %d", rec.Code)
	}
	var history struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(history.Messages))
	}
	wantRoles := []string{"user", "assistant", "user", "assistant"}
	for i, msg := range history.Messages {
		if msg.Role != wantRoles[i] {
			t.Errorf("message %d: expected role %s, got %s", i, wantRoles[i], msg.Role)
		}
	}
}

func TestForeignConversationIs404(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice", "alice@example.com")
	register(t, srv, "mallory", "mallory@example.com")
	aliceToken := login(t, srv, "alice")
	malloryToken := login(t, srv, "mallory")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat/", aliceToken, `{"message":"private"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat: status %d", rec.Code)
	}
	var chat struct {
		ConversationID int64 `json:"conversation_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&chat); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	convID := strconv.FormatInt(chat.ConversationID, 10)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/chat/history/"+convID, malloryToken, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("history as other user: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/chat/", malloryToken,
		`{"message":"hijack","conversation_id":`+convID+`}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("chat into other user's conversation: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/chat/conversations/"+convID, malloryToken, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete as other user: expected 404, got %d", rec.Code)
	}
}

func TestDeleteConversation(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice", "alice@example.com")
	token := login(t, srv, "alice")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat/", token, `{"message":"short lived"}`)
	var chat struct {
		ConversationID int64 `json:"conversation_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&chat); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	convID := strconv.FormatInt(chat.ConversationID, 10)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/chat/conversations/"+convID, token, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/chat/history/"+convID, token, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("history after delete: expected 404, got %d", rec.Code)
	}
}

func TestExpiredTokenIs401WithCode(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice", "alice@example.com")

	expired := services.NewTokenService("test-secret", -time.Hour)
	token, err := expired.Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/auth/me", token, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Code != "TOKEN_EXPIRED" {
		t.Errorf("expected code TOKEN_EXPIRED, got %q", body.Code)
	}
}
