package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
	apperrors "github.com/jwalitptl/compliance-api/pkg/errors"
)

type Service struct {
	repo repository.AuditRepository
	now  func() time.Time
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type LogOptions struct {
	Changes  interface{}
	Metadata interface{}
}

// Log creates an audit log entry
func (s *Service) Log(ctx context.Context, actorID uuid.UUID, action, entityType, entityID string, opts *LogOptions) error {
	var changes, metadata json.RawMessage
	var err error

	if opts != nil {
		if opts.Changes != nil {
			changes, err = json.Marshal(opts.Changes)
			if err != nil {
				return fmt.Errorf("failed to marshal audit changes: %w", err)
			}
		}
		if opts.Metadata != nil {
			metadata, err = json.Marshal(opts.Metadata)
			if err != nil {
				return fmt.Errorf("failed to marshal audit metadata: %w", err)
			}
		}
	}

	// Requests handled by gin carry the client address; scheduled jobs do not.
	if gc, ok := ctx.(*gin.Context); ok {
		metadata, err = withClient(metadata, gc.ClientIP(), gc.GetHeader("User-Agent"))
		if err != nil {
			return err
		}
	}

	log := &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changes,
		Metadata:   metadata,
		CreatedAt:  s.now(),
	}

	return s.repo.Create(ctx, log)
}

func withClient(metadata json.RawMessage, ip, userAgent string) (json.RawMessage, error) {
	fields := map[string]interface{}{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &fields); err != nil {
			// Non-object metadata is kept under its own key.
			fields = map[string]interface{}{"value": metadata}
		}
	}
	fields["ip_address"] = ip
	fields["user_agent"] = userAgent

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit metadata: %w", err)
	}
	return out, nil
}

// List returns one page of the audit trail, newest first.
func (s *Service) List(ctx context.Context, filter model.AuditFilter, page model.Pagination) (*model.Page[*model.AuditLog], error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperrors.BadRequest("invalid date range", fmt.Errorf("to %s is before from %s",
			filter.To.Format(time.DateOnly), filter.From.Format(time.DateOnly)))
	}
	result, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return result, nil
}

// Cleanup deletes entries created before the cutoff.
func (s *Service) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.Cleanup(ctx, before)
}
