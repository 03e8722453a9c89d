package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(base BaseRepository) repository.AuditRepository {
	return &auditRepository{base}
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
        INSERT INTO audit_logs (
            id, actor_id, action, entity_type, entity_id,
            changes, metadata, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			log.ID,
			log.ActorID,
			log.Action,
			log.EntityType,
			log.EntityID,
			[]byte(log.Changes),
			[]byte(log.Metadata),
			log.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create audit log: %w", err)
		}
		return nil
	})
}

var auditColumns = []string{
	"id", "actor_id", "action", "entity_type", "entity_id",
	"changes", "metadata", "created_at",
}

func auditWhere(f model.AuditFilter) sq.And {
	where := sq.And{}
	if f.ActorID != uuid.Nil {
		where = append(where, sq.Eq{"actor_id": f.ActorID})
	}
	if f.EntityType != "" {
		where = append(where, sq.Eq{"entity_type": f.EntityType})
	}
	if f.EntityID != "" {
		where = append(where, sq.Eq{"entity_id": f.EntityID})
	}
	if f.Action != "" {
		where = append(where, sq.Eq{"action": f.Action})
	}
	if f.From != nil {
		where = append(where, sq.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		// To is inclusive of the whole day.
		where = append(where, sq.Lt{"created_at": f.To.AddDate(0, 0, 1)})
	}
	return where
}

func (r *auditRepository) List(ctx context.Context, filter model.AuditFilter, page model.Pagination) (result *model.Page[*model.AuditLog], err error) {
	defer func(start time.Time) { r.observe("audit_list", start, err) }(time.Now())

	page = page.Normalize()
	where := auditWhere(filter)

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("audit_logs").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build audit count: %w", err)
	}

	var total int64
	if err = r.GetDB().GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	result = &model.Page[*model.AuditLog]{
		Items:    []*model.AuditLog{},
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    total,
	}
	if total == 0 {
		return result, nil
	}

	query, args, err := psql.Select(auditColumns...).
		From("audit_logs").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(page.PageSize)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build audit list: %w", err)
	}

	if err = r.GetDB().SelectContext(ctx, &result.Items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return result, nil
}

func (r *auditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.GetDB().ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit logs: %w", err)
	}
	return result.RowsAffected()
}
