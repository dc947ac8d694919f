package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"knowdex/internal/app"
	"knowdex/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

// CreateSessionRequest may arrive as query parameters, a JSON body, or both;
// body fields win.
type CreateSessionRequest struct {
	WorkspaceID uint   `json:"workspace_id" form:"workspace_id"`
	Title       string `json:"title" form:"title" binding:"max=255"`
}

type ChatRequest struct {
	Message     string `json:"message"`
	Model       string `json:"model"`
	WorkspaceID uint   `json:"workspace_id" binding:"required,gt=0"`
	SessionID   *uint  `json:"session_id"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid query parameters")
		return
	}
	if c.Request.ContentLength != 0 && strings.HasPrefix(c.ContentType(), binding.MIMEJSON) {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}
	if req.WorkspaceID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "workspace_id is required")
		return
	}

	session, err := h.chatService.CreateSession(c.Request.Context(), userID, req.WorkspaceID, req.Title)
	if err != nil {
		writeError(c, err, "create session failed")
		return
	}
	response.OK(c, session)
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "workspace_id")
	if !ok {
		return
	}
	sessions, err := h.chatService.ListSessions(c.Request.Context(), userID, workspaceID)
	if err != nil {
		writeError(c, err, "list sessions failed")
		return
	}
	response.OK(c, sessions)
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathID(c, "session_id")
	if !ok {
		return
	}
	messages, err := h.chatService.GetMessages(c.Request.Context(), userID, sessionID)
	if err != nil {
		writeError(c, err, "get messages failed")
		return
	}
	response.OK(c, messages)
}

func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	input := app.SendMessageInput{
		OwnerID:     userID,
		WorkspaceID: req.WorkspaceID,
		Message:     req.Message,
		Model:       req.Model,
	}
	if req.SessionID != nil {
		input.SessionID = *req.SessionID
	}
	reply, err := h.chatService.Send(c.Request.Context(), input)
	if err != nil {
		writeError(c, err, "send message failed")
		return
	}
	response.OK(c, reply)
}
