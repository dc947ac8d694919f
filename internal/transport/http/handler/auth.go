package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"knowdex/internal/app"
	"knowdex/internal/model"
	"knowdex/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	FullName string `json:"full_name" binding:"max=255"`
}

// LoginRequest follows the OAuth2 password grant field names so that form
// posts from standard clients work; JSON bodies may also use "email".
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeError(c, err, "register failed")
		return
	}
	response.OK(c, tokenResponse(result))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	email := strings.TrimSpace(req.Username)
	if email == "" {
		email = strings.TrimSpace(req.Email)
	}
	if email == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "username is required")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Email:    email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err, "login failed")
		return
	}
	response.OK(c, tokenResponse(result))
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.authService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "fetch current user failed")
		return
	}
	response.OK(c, user)
}

func tokenResponse(result *app.AuthResult) TokenResponse {
	return TokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		User:        result.User,
	}
}
