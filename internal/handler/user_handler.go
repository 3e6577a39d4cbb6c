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

// UserHandler handles the account mutation and roster endpoints.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Create godoc
// POST /api/user/create
// Provisions an account, claims, and (for students) a gameplay document.
// A duplicate email returns 200 with the existing account's UID.
func (h *UserHandler) Create(c *gin.Context) {
	var req model.CreateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, existingUID, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUIDTaken):
			response.Fail(c, http.StatusConflict, response.ErrUIDTaken)
		case errors.Is(err, identity.ErrWeakPassword):
			response.Fail(c, http.StatusBadRequest, response.ErrPasswordTooShort)
		case errors.Is(err, identity.ErrInvalidUID):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if existingUID != "" {
		response.Success(c, http.StatusOK, gin.H{
			"uid":     existingUID,
			"message": "User already exists",
		})
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// Update godoc
// PUT|PATCH /api/user/update
// Applies a password change, claims merge, and student document patch.
func (h *UserHandler) Update(c *gin.Context) {
	var req model.UpdateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort), errors.Is(err, identity.ErrWeakPassword):
			response.Fail(c, http.StatusBadRequest, response.ErrPasswordTooShort)
		case errors.Is(err, identity.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrUserNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// Delete godoc
// DELETE /api/user/delete?uid=...
// Removes an account, refusing to delete the last remaining admin.
func (h *UserHandler) Delete(c *gin.Context) {
	uid := c.Query("uid")
	if uid == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrMissingUID)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), uid); err != nil {
		switch {
		case errors.Is(err, identity.ErrNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrUserNotFound)
		case errors.Is(err, service.ErrLastAdmin):
			response.Fail(c, http.StatusBadRequest, response.ErrLastAdmin)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
	})
}

// GetAll godoc
// GET /api/user/getAll
// Returns the full roster: accounts joined with student documents.
func (h *UserHandler) GetAll(c *gin.Context) {
	rows, err := h.userService.Roster(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"users": rows})
}

// ListSummaries godoc
// GET /api/users
// Legacy users-grid listing kept for older dashboard builds.
func (h *UserHandler) ListSummaries(c *gin.Context) {
	rows, err := h.userService.Summaries(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"users": rows})
}

// ResetPassword godoc
// POST /api/user/resetPassword
// Generates a password-reset link for the given email.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	link, err := h.userService.ResetPassword(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"success":   true,
		"message":   "Password reset link generated",
		"resetLink": link,
	})
}
