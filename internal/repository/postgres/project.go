package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
)

var timelineColumns = []string{"application_start_date", "application_end_date", "timeline_status"}

const (
	updateProjectStatus   = `UPDATE projects SET timeline_status = $1, updated_at = NOW() WHERE id = $2`
	updateStageStatus     = `UPDATE stages SET timeline_status = $1, updated_at = NOW() WHERE id = $2`
	updateIterationStatus = `UPDATE iterations SET timeline_status = $1, updated_at = NOW() WHERE id = $2`
)

type projectRepository struct {
	BaseRepository
}

func NewProjectRepository(base BaseRepository) repository.ProjectRepository {
	return &projectRepository{base}
}

func (r *projectRepository) FindAllOrderByIDAsc(ctx context.Context) (projects []*model.Project, err error) {
	defer func(start time.Time) { r.observe("project_find_all", start, err) }(time.Now())

	query, args, err := psql.Select(append([]string{"id", "name"}, timelineColumns...)...).
		From("projects").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build project query: %w", err)
	}

	if err = r.GetDB().SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if len(projects) == 0 {
		return projects, nil
	}

	ids := make([]int64, len(projects))
	byID := make(map[int64]*model.Project, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	var stages []*model.Stage
	if err = r.selectChildren(ctx, "stages", ids, &stages); err != nil {
		return nil, err
	}
	for _, s := range stages {
		if p, ok := byID[s.ProjectID]; ok {
			p.Stages = append(p.Stages, s)
		}
	}

	var iterations []*model.Iteration
	if err = r.selectChildren(ctx, "iterations", ids, &iterations); err != nil {
		return nil, err
	}
	for _, it := range iterations {
		if p, ok := byID[it.ProjectID]; ok {
			p.Iterations = append(p.Iterations, it)
		}
	}

	return projects, nil
}

func (r *projectRepository) selectChildren(ctx context.Context, table string, projectIDs []int64, dest interface{}) error {
	query, args, err := psql.Select(append([]string{"id", "project_id", "name"}, timelineColumns...)...).
		From(table).
		Where(sq.Eq{"project_id": projectIDs}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s query: %w", table, err)
	}
	if err := r.GetDB().SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("failed to list %s: %w", table, err)
	}
	return nil
}

func (r *projectRepository) SaveTimeline(ctx context.Context, project *model.Project) (err error) {
	defer func(start time.Time) { r.observe("project_save_timeline", start, err) }(time.Now())

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, updateProjectStatus, project.TimelineStatus, project.ID); err != nil {
			return fmt.Errorf("failed to update project %d: %w", project.ID, err)
		}
		for _, s := range project.Stages {
			if _, err := tx.ExecContext(ctx, updateStageStatus, s.TimelineStatus, s.ID); err != nil {
				return fmt.Errorf("failed to update stage %d: %w", s.ID, err)
			}
		}
		for _, it := range project.Iterations {
			if _, err := tx.ExecContext(ctx, updateIterationStatus, it.TimelineStatus, it.ID); err != nil {
				return fmt.Errorf("failed to update iteration %d: %w", it.ID, err)
			}
		}
		return nil
	})
}

type representativeRow struct {
	UserID   uuid.UUID      `db:"user_id"`
	FullName string         `db:"full_name"`
	Email    string         `db:"email"`
	Roles    pq.StringArray `db:"roles"`
}

func (r *projectRepository) ListRepresentatives(ctx context.Context, projectID int64) ([]model.Representative, error) {
	query, args, err := psql.Select("u.id AS user_id", "u.full_name", "u.email", "u.roles").
		From("project_representatives pr").
		Join("users u ON u.id = pr.user_id").
		Where(sq.Eq{"pr.project_id": projectID}).
		OrderBy("u.full_name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build representatives query: %w", err)
	}

	var rows []representativeRow
	if err := r.GetDB().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list representatives of project %d: %w", projectID, err)
	}

	reps := make([]model.Representative, 0, len(rows))
	for _, row := range rows {
		reps = append(reps, model.Representative{
			UserID:   row.UserID,
			FullName: row.FullName,
			Email:    row.Email,
			Roles:    []string(row.Roles),
		})
	}
	return reps, nil
}
