package questionnaire

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository/mocks"
	"github.com/jwalitptl/compliance-api/internal/service/notification/strategy"
	"github.com/jwalitptl/compliance-api/internal/service/timeline"
	"github.com/jwalitptl/compliance-api/pkg/logger"
	"github.com/jwalitptl/compliance-api/pkg/metrics"
)

type fakeNotifier struct {
	bags  []strategy.Context
	types []model.NotificationType
	fail  map[int64]error
}

func (f *fakeNotifier) Send(_ context.Context, t model.NotificationType, bag strategy.Context) ([]*model.Notification, error) {
	f.types = append(f.types, t)
	f.bags = append(f.bags, bag)
	id, _ := bag.Int64(strategy.KeyQuestionnaireID)
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	return []*model.Notification{{ID: uuid.New()}, {ID: uuid.New()}}, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var today = timeline.FixedClock(time.Date(2024, 5, 10, 7, 0, 0, 0, time.UTC))

func TestPeriod(t *testing.T) {
	end := date(2024, 5, 20)
	assert.Equal(t, "10/05/2024 até 20/05/2024", Period(date(2024, 5, 10), &end))
	assert.Equal(t, "10/05/2024", Period(date(2024, 5, 10), nil))
}

func TestReminderService_Run(t *testing.T) {
	repo := new(mocks.QuestionnaireRepository)
	end := date(2024, 5, 20)
	repo.On("FindStartingOn", mock.Anything, date(2024, 5, 10)).Return([]*model.Questionnaire{
		{ID: 3, ProjectID: 7, ProjectName: "P1", Name: "Q1", ApplicationStartDate: date(2024, 5, 10), ApplicationEndDate: &end},
		{ID: 4, ProjectID: 8, ProjectName: "P2", Name: "Q2", ApplicationStartDate: date(2024, 5, 10)},
	}, nil)
	notifier := &fakeNotifier{}

	svc := NewReminderService(repo, notifier, today, logger.NewNop(), metrics.NewNop())
	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ReminderResult{Questionnaires: 2, Notifications: 4}, result)
	require.Len(t, notifier.bags, 2)
	assert.Equal(t, []model.NotificationType{
		model.NotificationTypeQuestionnaireReminder,
		model.NotificationTypeQuestionnaireReminder,
	}, notifier.types)

	first := notifier.bags[0]
	assert.Equal(t, int64(7), first[strategy.KeyProjectID])
	assert.Equal(t, int64(3), first[strategy.KeyQuestionnaireID])
	assert.Equal(t, "Q1", first[strategy.KeyQuestionnaireName])
	assert.Equal(t, "P1", first[strategy.KeyProjectName])
	assert.Equal(t, "10/05/2024 até 20/05/2024", first[strategy.KeyPeriod])
	assert.Equal(t, "10/05/2024", notifier.bags[1][strategy.KeyPeriod])
}

func TestReminderService_FailureDoesNotStopSweep(t *testing.T) {
	repo := new(mocks.QuestionnaireRepository)
	repo.On("FindStartingOn", mock.Anything, mock.Anything).Return([]*model.Questionnaire{
		{ID: 1, ProjectID: 1, Name: "A", ProjectName: "P", ApplicationStartDate: date(2024, 5, 10)},
		{ID: 2, ProjectID: 1, Name: "B", ProjectName: "P", ApplicationStartDate: date(2024, 5, 10)},
		{ID: 3, ProjectID: 1, Name: "C", ProjectName: "P", ApplicationStartDate: date(2024, 5, 10)},
	}, nil)
	notifier := &fakeNotifier{fail: map[int64]error{2: errors.New("template missing")}}

	svc := NewReminderService(repo, notifier, today, logger.NewNop(), metrics.NewNop())
	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ReminderResult{Questionnaires: 3, Notifications: 4, Failed: 1}, result)
	assert.Len(t, notifier.bags, 3)
}

func TestReminderService_NothingStartingToday(t *testing.T) {
	repo := new(mocks.QuestionnaireRepository)
	repo.On("FindStartingOn", mock.Anything, mock.Anything).Return([]*model.Questionnaire{}, nil)
	notifier := &fakeNotifier{}

	svc := NewReminderService(repo, notifier, today, logger.NewNop(), metrics.NewNop())
	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ReminderResult{}, result)
	assert.Empty(t, notifier.bags)
}

func TestReminderService_QueryFailure(t *testing.T) {
	repo := new(mocks.QuestionnaireRepository)
	queryErr := errors.New("timeout")
	repo.On("FindStartingOn", mock.Anything, mock.Anything).Return(nil, queryErr)

	svc := NewReminderService(repo, &fakeNotifier{}, today, logger.NewNop(), metrics.NewNop())
	_, err := svc.Run(context.Background())

	assert.ErrorIs(t, err, queryErr)
}
