package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/3stan1104/GeneFlow/internal/identity"
	"github.com/3stan1104/GeneFlow/internal/model"
	"github.com/3stan1104/GeneFlow/internal/response"
	"github.com/3stan1104/GeneFlow/internal/service"
	"github.com/3stan1104/GeneFlow/internal/validator"
)

// AuthHandler handles bearer-token issuance for the dashboard.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// IssueToken godoc
// POST /api/auth/token
// Verifies email + password against the identity provider and returns a
// bearer token for the admin API.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req model.TokenRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, account, err := h.userService.IssueToken(c.Request.Context(), h.authService, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrNotFound),
			errors.Is(err, identity.ErrInvalidCredentials),
			errors.Is(err, identity.ErrAccountDisabled):
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"uid":   account.UID,
			"email": account.Email,
			"role":  account.Role(),
		},
	})
}
