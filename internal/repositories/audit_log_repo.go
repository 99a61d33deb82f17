package repositories

import (
	"context"
	"time"

	"github.com/gatherly/gatherly/internal/database"
	"github.com/gatherly/gatherly/internal/models"
	"github.com/google/uuid"
)

type AuditLogRepository struct {
	db *database.DB
}

func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Save(ctx context.Context, entry *models.AuditLog) error {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO audit_logs (id, action, user_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		entry.ID, entry.Action, nullableString(entry.UserID), nullableString(entry.Metadata), entry.CreatedAt,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// DeleteOlderThan prunes audit rows past the retention window.
func (r *AuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return tag.RowsAffected(), nil
}
