package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gatherly/gatherly/internal/models"
	"github.com/gatherly/gatherly/internal/services"
	pkghttp "github.com/gatherly/gatherly/pkg/http"
)

// AdminServiceInterface defines the interface for admin provisioning
type AdminServiceInterface interface {
	CreateUser(ctx context.Context, email string, roles []string) (*services.ProvisionResult, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

// AdminHandler handles administrative HTTP requests
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// ProvisionUserRequest represents the request body for provisioning a user
type ProvisionUserRequest struct {
	Email string   `json:"email" validate:"required,email"`
	Roles []string `json:"roles" validate:"omitempty,dive,oneof=USER ADMIN"`
}

// CreateUser handles admin provisioning of a new account
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req ProvisionUserRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	// Stored exactly as provided; logins match it case-sensitively.
	req.Email = strings.TrimSpace(req.Email)

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.CreateUser(r.Context(), req.Email, req.Roles)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "A user with this email already exists")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, result)
}

// ListUsers returns all user accounts without credential material
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.GetAllUsers(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, users)
}
