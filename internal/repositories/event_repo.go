package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherly/gatherly/internal/database"
	"github.com/gatherly/gatherly/internal/models"
	"github.com/google/uuid"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func scanEventRow(scanner rowScanner) (*models.Event, error) {
	var event models.Event
	var description *string

	err := scanner.Scan(
		&event.ID, &event.OwnerID, &event.Title, &event.Date,
		&description, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if description != nil {
		event.Description = *description
	}

	return &event, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `
		SELECT id, owner_id, title, date, description, created_at, updated_at
		FROM events WHERE id = $1
	`
	return scanEventRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Event, error) {
	query := `
		SELECT id, owner_id, title, date, description, created_at, updated_at
		FROM events WHERE owner_id = $1 ORDER BY date ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	event.ID = uuid.New().String()

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	query := `
		INSERT INTO events (id, owner_id, title, date, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		event.ID, event.OwnerID, event.Title, event.Date,
		nullableString(event.Description), event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	event.UpdatedAt = time.Now()

	query := `
		UPDATE events SET title = $2, date = $3, description = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		event.ID, event.Title, event.Date, nullableString(event.Description), event.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}

	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
