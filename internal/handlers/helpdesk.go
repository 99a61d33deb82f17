package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gatherly/gatherly/internal/auth"
	"github.com/gatherly/gatherly/internal/models"
	"github.com/gatherly/gatherly/internal/services"
	pkghttp "github.com/gatherly/gatherly/pkg/http"
)

// HelpDeskServiceInterface defines the interface for help desk triage
type HelpDeskServiceInterface interface {
	SendMessage(ctx context.Context, userID, content string) (*services.SendMessageResult, error)
	GetHistory(ctx context.Context, chatID string) ([]*models.ChatMessage, error)
	GetQueue(ctx context.Context) ([]*models.QueueEntry, error)
	ReplyToUser(ctx context.Context, agentID, userID, content string) (*models.ChatMessage, error)
	ResolveChat(ctx context.Context, chatID string) error
}

// HelpDeskHandler handles help desk chat HTTP requests
type HelpDeskHandler struct {
	service HelpDeskServiceInterface
}

// NewHelpDeskHandler creates a new HelpDeskHandler
func NewHelpDeskHandler(service HelpDeskServiceInterface) *HelpDeskHandler {
	return &HelpDeskHandler{service: service}
}

// SendMessageRequest represents the request body for an inbound chat message
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// AgentReplyRequest represents the request body for a human agent reply
type AgentReplyRequest struct {
	Content string `json:"content" validate:"required"`
}

// SendMessage handles an inbound message from the authenticated user
func (h *HelpDeskHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req SendMessageRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.SendMessage(r.Context(), claims.Subject, req.Content)
	if err != nil {
		if errors.Is(err, models.ErrServiceUnavailable) {
			pkghttp.WriteServiceUnavailable(w, "The AI integration is temporarily unavailable.")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// GetHistory returns the authenticated user's own conversation
func (h *HelpDeskHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	history, err := h.service.GetHistory(r.Context(), claims.Subject)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, history)
}

// GetQueue returns the agent triage queue, newest conversation first
func (h *HelpDeskHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetQueue(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, entries)
}

// ReplyToUser records an agent reply into a user's conversation
func (h *HelpDeskHandler) ReplyToUser(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	userID := strings.TrimSpace(chi.URLParam(r, "userId"))
	if userID == "" {
		pkghttp.WriteBadRequest(w, "Missing user id")
		return
	}

	var req AgentReplyRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	message, err := h.service.ReplyToUser(r.Context(), claims.Subject, userID, req.Content)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, message)
}

// ResolveChat returns a conversation to AI handling
func (h *HelpDeskHandler) ResolveChat(w http.ResponseWriter, r *http.Request) {
	chatID := strings.TrimSpace(chi.URLParam(r, "chatId"))
	if chatID == "" {
		pkghttp.WriteBadRequest(w, "Missing chat id")
		return
	}

	if err := h.service.ResolveChat(r.Context(), chatID); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
