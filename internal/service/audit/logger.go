package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/compliance-api/pkg/logger"
)

// AuditLogger writes audit entries without failing the caller. Write errors
// are logged and dropped.
type AuditLogger struct {
	service *Service
	log     *logger.Logger
}

func NewAuditLogger(service *Service, log *logger.Logger) *AuditLogger {
	return &AuditLogger{
		service: service,
		log:     log,
	}
}

func (l *AuditLogger) Log(ctx context.Context, actorID uuid.UUID, action, entityType, entityID string, opts *LogOptions) {
	if err := l.service.Log(ctx, actorID, action, entityType, entityID, opts); err != nil {
		l.log.Error(err, "failed to write audit log",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
		)
	}
}

func (l *AuditLogger) LogSync(ctx context.Context, actorID uuid.UUID, action, entityType, entityID string, opts *LogOptions) error {
	return l.service.Log(ctx, actorID, action, entityType, entityID, opts)
}
