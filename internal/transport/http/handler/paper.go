package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"knowdex/internal/app"
	"knowdex/internal/transport/http/response"
)

type PaperHandler struct {
	paperService *app.PaperService
}

type UploadPaperRequest struct {
	WorkspaceID uint   `form:"workspace_id" binding:"required,gt=0"`
	Title       string `form:"title" binding:"required,max=512"`
	Authors     string `form:"authors"`
	Abstract    string `form:"abstract"`
	SourceURL   string `form:"source_url"`
}

func NewPaperHandler(paperService *app.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

func (h *PaperHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UploadPaperRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed")
		return
	}
	defer file.Close()

	paper, err := h.paperService.Upload(c.Request.Context(), app.UploadPaperInput{
		OwnerID:     userID,
		WorkspaceID: req.WorkspaceID,
		Title:       req.Title,
		Authors:     req.Authors,
		Abstract:    req.Abstract,
		SourceURL:   req.SourceURL,
		FileName:    header.Filename,
		File:        file,
	})
	if err != nil {
		writeError(c, err, "upload paper failed")
		return
	}
	response.OK(c, paper)
}

func (h *PaperHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workspaceID, ok := pathID(c, "workspace_id")
	if !ok {
		return
	}
	papers, err := h.paperService.List(c.Request.Context(), userID, workspaceID)
	if err != nil {
		writeError(c, err, "list papers failed")
		return
	}
	response.OK(c, papers)
}

func (h *PaperHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.paperService.Delete(c.Request.Context(), userID, id); err != nil {
		writeError(c, err, "delete paper failed")
		return
	}
	response.Detail(c, "Paper deleted")
}
