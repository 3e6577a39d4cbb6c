package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/3stan1104/GeneFlow/internal/config"
	"github.com/3stan1104/GeneFlow/internal/model"
	"github.com/3stan1104/GeneFlow/internal/response"
	"github.com/3stan1104/GeneFlow/internal/service"
)

// SetupHandler handles the one-time bootstrap endpoint.
type SetupHandler struct {
	userService *service.UserService
	cfg         *config.Config
}

// NewSetupHandler creates a new SetupHandler.
func NewSetupHandler(userService *service.UserService, cfg *config.Config) *SetupHandler {
	return &SetupHandler{userService: userService, cfg: cfg}
}

// EnsureAdmin godoc
// POST /api/setup/ensureAdmin
// Creates the bootstrap admin account, or repairs the admin claim on an
// existing one. 201 when created, 200 when it already existed.
func (h *SetupHandler) EnsureAdmin(c *gin.Context) {
	var req model.EnsureAdminRequest
	// The body is entirely optional; a missing or empty body falls back
	// to the configured defaults.
	_ = c.ShouldBindJSON(&req)

	email := req.Email
	if email == "" {
		email = h.cfg.SetupAdminEmail
	}
	password := req.Password
	if password == "" {
		password = h.cfg.SetupAdminPassword
	}
	displayName := req.DisplayName
	if displayName == "" {
		displayName = h.cfg.SetupAdminName
	}

	uid, created, err := h.userService.EnsureAdmin(c.Request.Context(), email, password, displayName)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	status := http.StatusOK
	message := "Admin user already exists"
	if created {
		status = http.StatusCreated
		message = "Admin user created"
	}

	response.Success(c, status, gin.H{
		"uid":     uid,
		"email":   email,
		"created": created,
		"message": message,
	})
}
