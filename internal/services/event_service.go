package services

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/gatherly/gatherly/internal/models"
)

// EventRepository defines the interface for calendar event persistence
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Event, error)
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}

// EventService handles calendar event business logic
type EventService struct {
	repo   EventRepository
	audit  Auditor
	logger *slog.Logger
}

// NewEventService creates a new EventService
func NewEventService(repo EventRepository, audit Auditor, logger *slog.Logger) *EventService {
	return &EventService{
		repo:   repo,
		audit:  audit,
		logger: logger,
	}
}

// CreateEvent validates and persists a new event for the user.
func (s *EventService) CreateEvent(ctx context.Context, userID, title string, date time.Time, description string) (*models.Event, error) {
	if date.Before(time.Now()) {
		return nil, models.ErrBadRequest
	}

	if utf8.RuneCountInString(title) > models.MaxEventTitleLen {
		return nil, models.ErrBadRequest
	}

	event, err := s.repo.Create(ctx, &models.Event{
		OwnerID:     userID,
		Title:       title,
		Date:        date,
		Description: description,
	})
	if err != nil {
		s.logger.Error("failed to create event", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Log(ctx, models.AuditCreateEvent, userID, map[string]string{"eventId": event.ID})
	return event, nil
}

// GetUserEvents lists the user's events ordered by date.
func (s *EventService) GetUserEvents(ctx context.Context, userID string) ([]*models.Event, error) {
	events, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list events", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return events, nil
}

// UpdateDescription changes an event's description after verifying the
// caller owns it.
func (s *EventService) UpdateDescription(ctx context.Context, eventID, userID, newDescription string) (*models.Event, error) {
	event, err := s.getOwnedEvent(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	event.Description = newDescription
	updated, err := s.repo.Update(ctx, event)
	if err != nil {
		s.logger.Error("failed to update event", slog.String("event_id", eventID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.Log(ctx, models.AuditUpdateEvent, userID, map[string]string{"eventId": eventID})
	return updated, nil
}

// DeleteEvent removes an event after verifying ownership.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, userID string) error {
	if _, err := s.getOwnedEvent(ctx, eventID, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, eventID); err != nil {
		s.logger.Error("failed to delete event", slog.String("event_id", eventID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Log(ctx, models.AuditDeleteEvent, userID, map[string]string{"eventId": eventID})
	return nil
}

func (s *EventService) getOwnedEvent(ctx context.Context, eventID, userID string) (*models.Event, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get event", slog.String("event_id", eventID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if event.OwnerID != userID {
		return nil, models.ErrForbidden
	}

	return event, nil
}
