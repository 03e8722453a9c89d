// Package questionnaire runs the daily reminder sweep over questionnaires
// whose application window opens today.
package questionnaire

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
	"github.com/jwalitptl/compliance-api/internal/service/notification/strategy"
	"github.com/jwalitptl/compliance-api/internal/service/timeline"
	"github.com/jwalitptl/compliance-api/pkg/logger"
	"github.com/jwalitptl/compliance-api/pkg/metrics"
)

const JobName = "questionnaire_reminder"

// Notifier is the part of the strategy registry the sweep needs.
type Notifier interface {
	Send(ctx context.Context, t model.NotificationType, bag strategy.Context) ([]*model.Notification, error)
}

type ReminderResult struct {
	Questionnaires int
	Notifications  int
	Failed         int
}

type ReminderService struct {
	questionnaires repository.QuestionnaireRepository
	notifier       Notifier
	clock          timeline.Clock
	logger         *logger.Logger
	metrics        *metrics.Metrics
}

func NewReminderService(
	questionnaires repository.QuestionnaireRepository,
	notifier Notifier,
	clock timeline.Clock,
	log *logger.Logger,
	m *metrics.Metrics,
) *ReminderService {
	if clock == nil {
		clock = timeline.SystemClock{}
	}
	return &ReminderService{
		questionnaires: questionnaires,
		notifier:       notifier,
		clock:          clock,
		logger:         log,
		metrics:        m,
	}
}

// Run reminds the representatives of every questionnaire starting today.
// A questionnaire that fails is logged and skipped.
func (s *ReminderService) Run(ctx context.Context) (ReminderResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.JobDuration.WithLabelValues(JobName).Observe(time.Since(start).Seconds())
	}()

	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var result ReminderResult
	found, err := s.questionnaires.FindStartingOn(ctx, today)
	if err != nil {
		s.metrics.JobRuns.WithLabelValues(JobName, "error").Inc()
		return result, fmt.Errorf("failed to find questionnaires starting on %s: %w", today.Format("2006-01-02"), err)
	}
	result.Questionnaires = len(found)

	for _, q := range found {
		sent, err := s.remind(ctx, q)
		result.Notifications += sent
		if err != nil {
			result.Failed++
			s.metrics.JobItems.WithLabelValues(JobName, "failed").Inc()
			s.logger.Error(err, "Failed to send questionnaire reminder", "questionnaire_id", questionnaireID(q))
			continue
		}
		s.metrics.JobItems.WithLabelValues(JobName, "processed").Inc()
	}

	s.metrics.JobRuns.WithLabelValues(JobName, "success").Inc()
	s.logger.Info("Questionnaire reminder sweep finished",
		"questionnaires", result.Questionnaires,
		"notifications", result.Notifications,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *ReminderService) remind(ctx context.Context, q *model.Questionnaire) (sent int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while sending reminder: %v", r)
		}
	}()
	if q == nil {
		return 0, fmt.Errorf("questionnaire is nil")
	}

	bag := strategy.QuestionnaireReminderContext{
		ProjectID:         q.ProjectID,
		QuestionnaireID:   q.ID,
		QuestionnaireName: q.Name,
		Period:            Period(q.ApplicationStartDate, q.ApplicationEndDate),
		ProjectName:       q.ProjectName,
	}.Bag()

	notifications, err := s.notifier.Send(ctx, model.NotificationTypeQuestionnaireReminder, bag)
	return len(notifications), err
}

// Period renders "dd/MM/yyyy até dd/MM/yyyy", or only the start when the
// window has no end.
func Period(start time.Time, end *time.Time) string {
	if end == nil {
		return strategy.FormatDate(start)
	}
	return strategy.FormatDate(start) + " até " + strategy.FormatDate(*end)
}

func questionnaireID(q *model.Questionnaire) int64 {
	if q == nil {
		return 0
	}
	return q.ID
}
