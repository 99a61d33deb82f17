package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gatherly/gatherly/internal/models"
	pkglogger "github.com/gatherly/gatherly/pkg/logger"
)

// Auditor is the write contract the business flows depend on. Logging an
// audit event is fire-and-forget: the triggering operation never fails
// because the sink did.
type Auditor interface {
	Log(ctx context.Context, action, userID string, metadata map[string]string)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Save(ctx context.Context, entry *models.AuditLog) error
}

// AuditService writes audit events to the database and mirrors them into
// the structured log stream.
type AuditService struct {
	repo        AuditRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuditService {
	return &AuditService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Log records an audit event. Metadata, if present, is serialized to a JSON
// string before storage. Persistence failures are logged and swallowed.
func (s *AuditService) Log(ctx context.Context, action, userID string, metadata map[string]string) {
	var serialized string
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			s.logger.Error("failed to serialize audit metadata",
				slog.String("action", action),
				slog.Any("error", err))
		} else {
			serialized = string(raw)
		}
	}

	entry := &models.AuditLog{
		Action:   action,
		UserID:   userID,
		Metadata: serialized,
	}

	if err := s.repo.Save(ctx, entry); err != nil {
		s.logger.Error("failed to persist audit entry",
			slog.String("action", action),
			slog.Any("error", err))
	}

	s.auditLogger.LogAccountAction(action, userID, metadata)
}
