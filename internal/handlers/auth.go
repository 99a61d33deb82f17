package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gatherly/gatherly/internal/auth"
	"github.com/gatherly/gatherly/internal/models"
	pkghttp "github.com/gatherly/gatherly/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	ValidateUser(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, user *models.User) (*models.LoginResult, error)
	Refresh(ctx context.Context, token string) (*models.LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// MFAServiceInterface defines the interface for email-code MFA flows
type MFAServiceInterface interface {
	Enable(ctx context.Context, userID string) (*models.MFASetup, error)
	Verify(ctx context.Context, userID, code string) (*models.LoginResult, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service    AuthServiceInterface
	mfaService MFAServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, mfaService MFAServiceInterface) *AuthHandler {
	return &AuthHandler{
		service:    service,
		mfaService: mfaService,
	}
}

// Request DTOs

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the request body for token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// PasswordResetRequest represents the request body for requesting a reset link
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents the request body for completing a reset
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// VerifyMFARequest represents the request body for the second login step
type VerifyMFARequest struct {
	UserID string `json:"userId" validate:"required"`
	Code   string `json:"code" validate:"required"`
}

// Login handles user login. When the account has MFA enabled the response
// carries mfaRequired instead of tokens and the client must call VerifyMFA.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	// Lookup is case-sensitive: the address is matched exactly as stored.
	req.Email = strings.TrimSpace(req.Email)

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.ValidateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Invalid credentials format")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	if user == nil {
		// Same body for unknown email and wrong password.
		pkghttp.WriteUnauthorized(w, "Authentication failed")
		return
	}

	result, err := h.service.Login(r.Context(), user)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// Refresh handles access-token renewal from a refresh token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Authentication failed")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// RequestPasswordReset handles password reset link requests. The response is
// the same whether or not the email maps to an account.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists with this email, a password reset link will be sent.",
	})
}

// ResetPassword handles completion of a password reset with a reset token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Password does not meet requirements")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid or expired reset token")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated successfully.",
	})
}

// EnableMFA handles enabling email-code MFA for the authenticated user
func (h *AuthHandler) EnableMFA(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	setup, err := h.mfaService.Enable(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, setup)
}

// VerifyMFA handles the second login step for MFA-enabled accounts
func (h *AuthHandler) VerifyMFA(w http.ResponseWriter, r *http.Request) {
	var req VerifyMFARequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.mfaService.Verify(r.Context(), req.UserID, req.Code)
	if err != nil {
		// Expired, wrong, consumed, and unknown-user all look the same.
		if errors.Is(err, models.ErrUnauthorized) || errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteUnauthorized(w, "Invalid or expired code")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}
