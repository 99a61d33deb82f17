package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gatherly/gatherly/internal/auth"
	"github.com/gatherly/gatherly/internal/models"
	pkghttp "github.com/gatherly/gatherly/pkg/http"
)

// EventServiceInterface defines the interface for event business logic
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, userID, title string, date time.Time, description string) (*models.Event, error)
	GetUserEvents(ctx context.Context, userID string) ([]*models.Event, error)
	UpdateDescription(ctx context.Context, eventID, userID, newDescription string) (*models.Event, error)
	DeleteEvent(ctx context.Context, eventID, userID string) error
}

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{service: service}
}

// CreateEventRequest represents the request body for event creation
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=150"`
	Date        time.Time `json:"date" validate:"required"`
	Description string    `json:"description"`
}

// UpdateEventRequest represents the request body for updating an event
type UpdateEventRequest struct {
	Description string `json:"description" validate:"required"`
}

// CreateEvent handles event creation for the authenticated user
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CreateEventRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	event, err := h.service.CreateEvent(r.Context(), claims.Subject, req.Title, req.Date, req.Description)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "Invalid event data")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, event)
}

// ListEvents returns all events owned by the authenticated user
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	events, err := h.service.GetUserEvents(r.Context(), claims.Subject)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, events)
}

// UpdateEvent handles updating an event's description
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	eventID := strings.TrimSpace(chi.URLParam(r, "id"))
	if eventID == "" {
		pkghttp.WriteBadRequest(w, "Missing event id")
		return
	}

	var req UpdateEventRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	event, err := h.service.UpdateDescription(r.Context(), eventID, claims.Subject, req.Description)
	if err != nil {
		writeEventError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, event)
}

// DeleteEvent handles event deletion
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	eventID := strings.TrimSpace(chi.URLParam(r, "id"))
	if eventID == "" {
		pkghttp.WriteBadRequest(w, "Missing event id")
		return
	}

	if err := h.service.DeleteEvent(r.Context(), eventID, claims.Subject); err != nil {
		writeEventError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeEventError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Event not found")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Access denied")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid event data")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
