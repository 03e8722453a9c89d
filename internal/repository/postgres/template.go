package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
)

// templateRow mirrors notification_templates; the set columns are text[].
type templateRow struct {
	Key        string         `db:"key"`
	WhoCanSend pq.StringArray `db:"who_can_send"`
	Recipients pq.StringArray `db:"recipients"`
	Title      string         `db:"title"`
	Body       string         `db:"body"`
	Channels   pq.StringArray `db:"channels"`
}

func (row templateRow) toModel() *model.NotificationTemplate {
	channels := make([]model.Channel, 0, len(row.Channels))
	for _, c := range row.Channels {
		channels = append(channels, model.Channel(c))
	}
	return &model.NotificationTemplate{
		Key:        row.Key,
		WhoCanSend: []string(row.WhoCanSend),
		Recipients: []string(row.Recipients),
		Title:      row.Title,
		Body:       row.Body,
		Channels:   channels,
	}
}

type templateRepository struct {
	BaseRepository
}

func NewNotificationTemplateRepository(base BaseRepository) repository.NotificationTemplateRepository {
	return &templateRepository{base}
}

func (r *templateRepository) FindByKey(ctx context.Context, key string) (*model.NotificationTemplate, error) {
	query, args, err := psql.Select("key", "who_can_send", "recipients", "title", "body", "channels").
		From("notification_templates").
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build template query: %w", err)
	}

	var row templateRow
	if err := r.GetDB().GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template %s: %w", key, err)
	}
	return row.toModel(), nil
}

func (r *templateRepository) CreateIfAbsent(ctx context.Context, tmpl *model.NotificationTemplate) (bool, error) {
	channels := make(pq.StringArray, 0, len(tmpl.Channels))
	for _, c := range tmpl.Channels {
		channels = append(channels, string(c))
	}

	query, args, err := psql.Insert("notification_templates").
		Columns("key", "who_can_send", "recipients", "title", "body", "channels").
		Values(tmpl.Key, pq.StringArray(tmpl.WhoCanSend), pq.StringArray(tmpl.Recipients), tmpl.Title, tmpl.Body, channels).
		Suffix("ON CONFLICT (key) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build template insert: %w", err)
	}

	res, err := r.GetDB().ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert template %s: %w", tmpl.Key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}
