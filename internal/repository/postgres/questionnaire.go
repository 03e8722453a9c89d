package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
)

type questionnaireRepository struct {
	BaseRepository
}

func NewQuestionnaireRepository(base BaseRepository) repository.QuestionnaireRepository {
	return &questionnaireRepository{base}
}

// FindStartingOn returns questionnaires whose application window opens on the
// calendar date of day.
func (r *questionnaireRepository) FindStartingOn(ctx context.Context, day time.Time) ([]*model.Questionnaire, error) {
	query, args, err := psql.Select(
		"q.id", "q.project_id", "p.name AS project_name", "q.name",
		"q.application_start_date", "q.application_end_date",
	).
		From("questionnaires q").
		Join("projects p ON p.id = q.project_id").
		Where("q.application_start_date = ?::date", day.Format("2006-01-02")).
		OrderBy("q.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build questionnaire query: %w", err)
	}

	var questionnaires []*model.Questionnaire
	if err := r.GetDB().SelectContext(ctx, &questionnaires, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list questionnaires starting on %s: %w", day.Format("2006-01-02"), err)
	}
	return questionnaires, nil
}
