// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"

	"assistant-chat/internal/middleware"
	"assistant-chat/internal/services"
	"assistant-chat/internal/transport/httpdto"
	"assistant-chat/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication HTTP endpoints.
type AuthHandler struct {
	service *services.AuthService
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req httpdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.ErrInvalidInput)
		return
	}

	u, err := h.service.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	})
}

// Login handles credential verification. The request body is form-encoded
// with username and password fields.
func (h *AuthHandler) Login(c *gin.Context) {
	var req httpdto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, apperrors.ErrInvalidInput)
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthenticated)
		return
	}

	c.JSON(http.StatusOK, httpdto.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	})
}

func writeError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), apperrors.Code(err)))
}
