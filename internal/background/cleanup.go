package background

import (
	"context"
	"log/slog"
	"time"
)

// MFACodeCleaner removes stale MFA challenge codes.
type MFACodeCleaner interface {
	ClearExpiredMFACodes(ctx context.Context) (int64, error)
}

// AuditPruner removes audit rows past the retention window.
type AuditPruner interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// CleanupManager periodically clears expired MFA codes and prunes old audit
// entries. Abandoned login attempts leave codes behind; the sweep keeps the
// users table from accumulating them.
type CleanupManager struct {
	users          MFACodeCleaner
	audits         AuditPruner
	logger         *slog.Logger
	interval       time.Duration
	auditRetention time.Duration
	stopCh         chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	users MFACodeCleaner,
	audits AuditPruner,
	logger *slog.Logger,
	interval time.Duration,
	auditRetention time.Duration,
) *CleanupManager {
	return &CleanupManager{
		users:          users,
		audits:         audits,
		logger:         logger,
		interval:       interval,
		auditRetention: auditRetention,
		stopCh:         make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cleared, err := cm.users.ClearExpiredMFACodes(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to clear expired mfa codes", slog.Any("error", err))
	} else if cleared > 0 {
		cm.logger.Info("expired mfa codes cleared", slog.Int64("rows_updated", cleared))
	}

	cutoff := time.Now().Add(-cm.auditRetention)
	pruned, err := cm.audits.DeleteOlderThan(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to prune audit entries", slog.Any("error", err))
	} else if pruned > 0 {
		cm.logger.Info("audit entries pruned", slog.Int64("rows_deleted", pruned))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
