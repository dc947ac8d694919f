package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"knowdex/internal/app"
	"knowdex/internal/transport/http/response"
)

type WorkspaceHandler struct {
	workspaceService *app.WorkspaceService
}

type CreateWorkspaceRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

func NewWorkspaceHandler(workspaceService *app.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService}
}

func (h *WorkspaceHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	ws, err := h.workspaceService.Create(c.Request.Context(), app.CreateWorkspaceInput{
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err, "create workspace failed")
		return
	}
	response.OK(c, ws)
}

func (h *WorkspaceHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	list, err := h.workspaceService.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "list workspaces failed")
		return
	}
	response.OK(c, list)
}

func (h *WorkspaceHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ws, err := h.workspaceService.Get(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err, "get workspace failed")
		return
	}
	response.OK(c, ws)
}

func (h *WorkspaceHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.workspaceService.Delete(c.Request.Context(), userID, id); err != nil {
		writeError(c, err, "delete workspace failed")
		return
	}
	response.Detail(c, "Workspace deleted")
}
