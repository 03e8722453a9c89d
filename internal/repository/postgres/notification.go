package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
)

var notificationColumns = []string{
	"id", "sender", "recipient", "title", "content",
	"status", "template_key", "created_at", "updated_at",
}

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func (r *notificationRepository) Save(ctx context.Context, n *model.Notification) (saved *model.Notification, err error) {
	defer func(start time.Time) { r.observe("notification_save", start, err) }(time.Now())

	stored := *n
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}

	query, args, err := psql.Insert("notifications").
		Columns(notificationColumns...).
		Values(
			stored.ID, stored.Sender, stored.Recipient, stored.Title, stored.Content,
			stored.Status, stored.TemplateKey, stored.CreatedAt, stored.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build notification insert: %w", err)
	}

	if _, err = r.GetDB().ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}

	return &stored, nil
}

func (r *notificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	query, args, err := psql.Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build notification query: %w", err)
	}

	var n model.Notification
	if err := r.GetDB().GetContext(ctx, &n, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, userID uuid.UUID, page model.Pagination) (*model.Page[*model.Notification], error) {
	page = page.Normalize()
	byRecipient := sq.Expr("recipient->>'userId' = ?", userID.String())

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From("notifications").
		Where(byRecipient).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build notification count: %w", err)
	}

	var total int64
	if err := r.GetDB().GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	result := &model.Page[*model.Notification]{
		Items:    []*model.Notification{},
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    total,
	}
	if total == 0 {
		return result, nil
	}

	query, args, err := psql.Select(notificationColumns...).
		From("notifications").
		Where(byRecipient).
		OrderBy("created_at DESC").
		Limit(uint64(page.PageSize)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build notification list: %w", err)
	}

	if err := r.GetDB().SelectContext(ctx, &result.Items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return result, nil
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus, updatedAt time.Time) error {
	query, args, err := psql.Update("notifications").
		Set("status", status).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build notification update: %w", err)
	}

	res, err := r.GetDB().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
