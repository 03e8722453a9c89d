package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/compliance-api/pkg/logger"
	"github.com/jwalitptl/compliance-api/pkg/metrics"
)

const auditCleanupJob = "audit_cleanup"

// AuditPruner deletes audit entries older than a cutoff.
type AuditPruner interface {
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}

type AuditCleanupWorker struct {
	audit           AuditPruner
	retentionDays   int
	cleanupInterval time.Duration
	logger          *logger.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
}

func NewAuditCleanupWorker(audit AuditPruner, retentionDays int, cleanupInterval time.Duration, log *logger.Logger, m *metrics.Metrics) *AuditCleanupWorker {
	if cleanupInterval <= 0 {
		cleanupInterval = 24 * time.Hour
	}
	return &AuditCleanupWorker{
		audit:           audit,
		retentionDays:   retentionDays,
		cleanupInterval: cleanupInterval,
		logger:          log,
		metrics:         m,
		now:             time.Now,
	}
}

func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Failed to clean up audit logs")
			}
		}
	}
}

// Cleanup removes entries older than the retention window. A non-positive
// retention keeps everything.
func (w *AuditCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	if w.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := w.now().AddDate(0, 0, -w.retentionDays)

	rows, err := w.audit.Cleanup(ctx, cutoff)
	if err != nil {
		w.metrics.JobRuns.WithLabelValues(auditCleanupJob, "error").Inc()
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}
	w.metrics.JobRuns.WithLabelValues(auditCleanupJob, "success").Inc()
	w.metrics.JobItems.WithLabelValues(auditCleanupJob, "deleted").Add(float64(rows))

	w.logger.Info("Cleaned up audit logs", "rows", rows, "cutoff", cutoff.Format(time.RFC3339))
	return rows, nil
}
