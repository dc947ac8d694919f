package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowdex/internal/ai"
	"knowdex/internal/bootstrap"
	"knowdex/internal/config"
	"knowdex/internal/testutil"
	"knowdex/internal/transport/http/response"
)

type fakeProvider struct {
	name  string
	reply string
	err   error
}

func (p *fakeProvider) Name() string  { return p.name }
func (p *fakeProvider) Model() string { return "fake" }
func (p *fakeProvider) Generate(_ context.Context, prompt, _ string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.reply + ": " + prompt, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	groq   *fakeProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	groq := &fakeProvider{name: ai.ProviderGroq, reply: "groq"}
	app := &bootstrap.App{
		Config: &config.Config{
			App:    config.AppConfig{Name: "knowdex", Env: "test", GinMode: gin.TestMode, CORSOrigins: []string{"http://localhost:5173"}},
			Auth:   config.AuthConfig{JWTSecret: "router-secret", JWTExpireMinute: 60},
			Upload: config.UploadConfig{Dir: t.TempDir(), MaxSizeMB: 1},
		},
		Logger:    zerolog.Nop(),
		DB:        testutil.NewDB(t),
		Providers: ai.NewRegistry(ai.ProviderGroq, groq, &fakeProvider{name: ai.ProviderGemini, reply: "gemini"}),
		StartedAt: time.Now(),
	}
	return &testServer{t: t, router: NewRouter(app), groq: groq}
}

func (s *testServer) do(method, path, token, contentType string, body io.Reader) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) json(method, path, token string, payload any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(method, path, token, "application/json", body)
}

func (s *testServer) register(email string) string {
	s.t.Helper()
	rec, env := s.json(nethttp.MethodPost, "/api/v1/auth/register", "", gin.H{"email": email, "password": "password123", "full_name": "Tester"})
	require.Equal(s.t, nethttp.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.AccessToken
}

func (s *testServer) createWorkspace(token, name string) uint {
	s.t.Helper()
	rec, env := s.json(nethttp.MethodPost, "/api/v1/workspaces", token, gin.H{"name": name})
	require.Equal(s.t, nethttp.StatusOK, rec.Code, rec.Body.String())
	var ws struct {
		ID uint `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &ws))
	return ws.ID
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.json(nethttp.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "Ada@Example.com", "password": "password123", "full_name": "Ada"})
	require.Equal(t, nethttp.StatusOK, rec.Code)
	reg := decode[struct {
		TokenType string         `json:"token_type"`
		User      map[string]any `json:"user"`
	}](t, env.Data)
	assert.Equal(t, "bearer", reg.TokenType)
	assert.Equal(t, "ada@example.com", reg.User["email"])
	assert.NotContains(t, reg.User, "password_hash")

	rec, env = s.json(nethttp.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "ada@example.com", "password": "password123"})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeEmailExists, env.Code)

	rec, env = s.json(nethttp.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "not-an-email", "password": "password123"})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeBadRequest, env.Code)

	form := url.Values{"username": {"ada@example.com"}, "password": {"password123"}}
	rec, env = s.do(nethttp.MethodPost, "/api/v1/auth/login", "", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	token := decode[struct {
		AccessToken string `json:"access_token"`
	}](t, env.Data).AccessToken
	require.NotEmpty(t, token)

	rec, _ = s.json(nethttp.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "ada@example.com", "password": "password123"})
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	rec, env = s.json(nethttp.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "ada@example.com", "password": "wrong-password"})
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)
	assert.Equal(t, response.CodeInvalidCredentials, env.Code)

	rec, env = s.json(nethttp.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	me := decode[map[string]any](t, env.Data)
	assert.Equal(t, "Ada", me["full_name"])
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.json(nethttp.MethodGet, "/api/v1/workspaces", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)
	assert.Equal(t, response.CodeUnauthorized, env.Code)

	rec, _ = s.json(nethttp.MethodGet, "/api/v1/workspaces", "garbage.token.value", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, nethttp.StatusUnauthorized, raw.Code)
}

func TestWorkspacesAreIsolatedBetweenUsers(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice@example.com")
	bob := s.register("bob@example.com")
	wsID := s.createWorkspace(alice, "Alice WS")

	rec, env := s.json(nethttp.MethodGet, "/api/v1/workspaces", alice, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	path := fmt.Sprintf("/api/v1/workspaces/%d", wsID)
	rec, env = s.json(nethttp.MethodGet, path, bob, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodeWorkspaceNotFound, env.Code)

	rec, _ = s.json(nethttp.MethodDelete, path, bob, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)

	rec, _ = s.json(nethttp.MethodGet, "/api/v1/workspaces/abc", alice, nil)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec, env = s.json(nethttp.MethodDelete, path, alice, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, "Workspace deleted", decode[map[string]string](t, env.Data)["detail"])

	rec, _ = s.json(nethttp.MethodGet, path, alice, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func uploadBody(t *testing.T, fields map[string]string, fileName, content string) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return w.FormDataContentType(), &buf
}

func TestPaperUploadListDelete(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice@example.com")
	bob := s.register("bob@example.com")
	wsID := s.createWorkspace(alice, "Papers")

	ct, body := uploadBody(t, map[string]string{
		"workspace_id": fmt.Sprint(wsID),
		"title":        "Attention",
		"abstract":     "Transformers.",
	}, "attention.pdf", "not really a pdf")
	rec, env := s.do(nethttp.MethodPost, "/api/v1/papers", alice, ct, body)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	paper := decode[map[string]any](t, env.Data)
	assert.Equal(t, "Attention", paper["title"])
	assert.NotContains(t, paper, "full_text")
	paperID := uint(paper["id"].(float64))

	ct, body = uploadBody(t, map[string]string{"workspace_id": fmt.Sprint(wsID), "title": "x"}, "x.pdf", "x")
	rec, env = s.do(nethttp.MethodPost, "/api/v1/papers", bob, ct, body)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodeWorkspaceNotFound, env.Code)

	ct, body = uploadBody(t, map[string]string{"workspace_id": fmt.Sprint(wsID), "title": "no file"}, "", "")
	rec, _ = s.do(nethttp.MethodPost, "/api/v1/papers", alice, ct, body)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec, env = s.json(nethttp.MethodGet, fmt.Sprintf("/api/v1/papers/%d", wsID), alice, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 1)

	rec, env = s.json(nethttp.MethodDelete, fmt.Sprintf("/api/v1/papers/%d", paperID), bob, nil)
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)
	assert.Equal(t, response.CodeForbidden, env.Code)

	rec, _ = s.json(nethttp.MethodDelete, fmt.Sprintf("/api/v1/papers/%d", paperID), alice, nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	rec, env = s.json(nethttp.MethodDelete, fmt.Sprintf("/api/v1/papers/%d", paperID), alice, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodePaperNotFound, env.Code)
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.register("alice@example.com")
	wsID := s.createWorkspace(token, "Chat")

	rec, env := s.json(nethttp.MethodPost, "/api/v1/chat", token, gin.H{"message": "Summarise", "model": "gemini", "workspace_id": wsID})
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	reply := decode[struct {
		SessionID uint   `json:"session_id"`
		Role      string `json:"role"`
		Content   string `json:"content"`
	}](t, env.Data)
	assert.Equal(t, "assistant", reply.Role)
	assert.Equal(t, "gemini: Summarise", reply.Content)

	rec, env = s.json(nethttp.MethodGet, fmt.Sprintf("/api/v1/chat/messages/%d", reply.SessionID), token, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	messages := decode[[]map[string]any](t, env.Data)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0]["role"])

	rec, env = s.json(nethttp.MethodPost, "/api/v1/chat", token, gin.H{"message": "   ", "workspace_id": wsID})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeBadRequest, env.Code)

	s.groq.err = errors.New("upstream exploded")
	rec, env = s.json(nethttp.MethodPost, "/api/v1/chat", token, gin.H{"message": "hi", "workspace_id": wsID, "session_id": reply.SessionID})
	assert.Equal(t, nethttp.StatusInternalServerError, rec.Code)
	assert.Equal(t, response.CodeAIService, env.Code)
	assert.Equal(t, "AI service error: upstream exploded", env.Message)

	rec, env = s.json(nethttp.MethodGet, fmt.Sprintf("/api/v1/chat/messages/%d", reply.SessionID), token, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, env.Data), 3)
}

func TestChatSessions(t *testing.T) {
	s := newTestServer(t)
	token := s.register("alice@example.com")
	other := s.register("bob@example.com")
	wsID := s.createWorkspace(token, "Chat")

	rec, env := s.json(nethttp.MethodPost, fmt.Sprintf("/api/v1/chat/sessions?workspace_id=%d", wsID), token, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "New Chat", decode[map[string]any](t, env.Data)["title"])

	rec, _ = s.json(nethttp.MethodPost, "/api/v1/chat/sessions", token, gin.H{"workspace_id": wsID, "title": "Lit review"})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, _ = s.json(nethttp.MethodPost, "/api/v1/chat/sessions", token, gin.H{})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec, env = s.json(nethttp.MethodGet, fmt.Sprintf("/api/v1/chat/sessions/%d", wsID), token, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	sessions := decode[[]map[string]any](t, env.Data)
	require.Len(t, sessions, 2)
	assert.Equal(t, "Lit review", sessions[1]["title"])

	rec, env = s.json(nethttp.MethodGet, fmt.Sprintf("/api/v1/chat/sessions/%d", wsID), other, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodeWorkspaceNotFound, env.Code)

	rec, env = s.json(nethttp.MethodGet, "/api/v1/chat/messages/999", token, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodeSessionNotFound, env.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(nethttp.MethodGet, "/health", "", "", nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec, _ = s.do(nethttp.MethodGet, "/", "", "", nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, _ = s.do(nethttp.MethodGet, "/healthz", "", "", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Providers    []string `json:"providers"`
		Dependencies map[string]struct {
			Enabled bool `json:"enabled"`
			OK      bool `json:"ok"`
		} `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"groq", "gemini"}, body.Providers)
	assert.True(t, body.Dependencies["database"].OK)
	assert.False(t, body.Dependencies["redis"].Enabled)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(nethttp.MethodOptions, "/api/v1/workspaces", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, nethttp.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
