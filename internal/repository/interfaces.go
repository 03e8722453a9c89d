package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/compliance-api/internal/model"
)

// ErrNotFound is returned by every store when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// All repository interfaces in one file
type (
	// NotificationRepository persists internal inbox entries.
	NotificationRepository interface {
		// Save inserts the notification, assigning an id when it has none, and
		// returns the stored copy.
		Save(ctx context.Context, notification *model.Notification) (*model.Notification, error)
		FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		ListForRecipient(ctx context.Context, userID uuid.UUID, page model.Pagination) (*model.Page[*model.Notification], error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus, updatedAt time.Time) error
	}

	NotificationTemplateRepository interface {
		FindByKey(ctx context.Context, key string) (*model.NotificationTemplate, error)
		// CreateIfAbsent inserts the template unless its key already exists.
		// It reports whether a row was written and never overwrites.
		CreateIfAbsent(ctx context.Context, template *model.NotificationTemplate) (bool, error)
	}

	ProjectRepository interface {
		// FindAllOrderByIDAsc loads every project with its stages and iterations.
		FindAllOrderByIDAsc(ctx context.Context) ([]*model.Project, error)
		// SaveTimeline writes the timeline status of the project, its stages and its iterations.
		SaveTimeline(ctx context.Context, project *model.Project) error
		ListRepresentatives(ctx context.Context, projectID int64) ([]model.Representative, error)
	}

	QuestionnaireRepository interface {
		FindStartingOn(ctx context.Context, day time.Time) ([]*model.Questionnaire, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter model.AuditFilter, page model.Pagination) (*model.Page[*model.AuditLog], error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}
)
