package strategy

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
	"github.com/jwalitptl/compliance-api/internal/service/notification"
	apperrors "github.com/jwalitptl/compliance-api/pkg/errors"
	"github.com/jwalitptl/compliance-api/pkg/logger"
)

type recordingDispatcher struct {
	commands []notification.SendInternalCommand
	failOn   int
	err      error
}

func (d *recordingDispatcher) SendInternal(_ context.Context, cmd notification.SendInternalCommand) (*model.Notification, error) {
	d.commands = append(d.commands, cmd)
	if d.err != nil && len(d.commands) == d.failOn {
		return nil, d.err
	}
	return &model.Notification{ID: uuid.New(), Recipient: cmd.Recipient, TemplateKey: cmd.TemplateKey}, nil
}

var systemParty = model.NotificationParty{UserID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), FullName: "Sistema"}

func newTestRegistry() (*Registry, *recordingDispatcher, *mocks.ProjectRepository) {
	d := &recordingDispatcher{}
	projects := new(mocks.ProjectRepository)
	return NewRegistry(d, projects, systemParty, logger.NewNop()), d, projects
}

func party(name string) model.NotificationParty {
	return model.NotificationParty{UserID: uuid.New(), FullName: name, Email: name + "@example.com"}
}

func TestRegistry_SupportsEveryType(t *testing.T) {
	r, _, _ := newTestRegistry()
	for _, nt := range model.NotificationTypes {
		assert.True(t, r.Supports(nt), nt)
		assert.Equal(t, string(nt), nt.TemplateKey())
	}
}

func TestRegistry_UnsupportedType(t *testing.T) {
	r, d, _ := newTestRegistry()

	_, err := r.Send(context.Background(), "SMOKE_SIGNAL", Context{})
	assert.ErrorIs(t, err, ErrUnsupportedNotificationType)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
	assert.Empty(t, d.commands)
}

func TestRegistry_QuestionnaireReminder(t *testing.T) {
	r, d, projects := newTestRegistry()
	reps := []model.Representative{
		{UserID: uuid.New(), FullName: "Ana", Email: "ana@example.com"},
		{UserID: uuid.New(), FullName: "Bia", Email: "bia@example.com"},
	}
	projects.On("ListRepresentatives", mock.Anything, int64(7)).Return(reps, nil)

	bag := QuestionnaireReminderContext{
		ProjectID:         7,
		QuestionnaireID:   3,
		QuestionnaireName: "Q1",
		Period:            "10/05/2024 até 20/05/2024",
		ProjectName:       "P1",
	}.Bag()

	sent, err := r.Send(context.Background(), model.NotificationTypeQuestionnaireReminder, bag)
	require.NoError(t, err)
	require.Len(t, sent, 2)
	require.Len(t, d.commands, 2)

	cmd := d.commands[0]
	assert.Equal(t, "QUESTIONNAIRE_REMINDER", cmd.TemplateKey)
	assert.Equal(t, systemParty, cmd.Sender)
	assert.Equal(t, notification.RoleSystem, cmd.SenderRole)
	assert.Equal(t, reps[0].UserID, cmd.Recipient.UserID)
	assert.Equal(t, "Q1", cmd.Context["questionnaireName"])
	assert.Equal(t, "P1", cmd.Context["projectName"])
	assert.Equal(t, "10/05/2024 até 20/05/2024", cmd.Context["period"])
	assert.Equal(t, "Ana", cmd.Context["recipientName"])
	assert.Equal(t, "Bia", d.commands[1].Context["recipientName"])
}

func TestRegistry_QuestionnaireReminderExplicitSender(t *testing.T) {
	r, d, projects := newTestRegistry()
	projects.On("ListRepresentatives", mock.Anything, int64(7)).
		Return([]model.Representative{{UserID: uuid.New(), FullName: "Ana"}}, nil)

	analyst := party("analyst")
	bag := Context{
		KeyProjectID:         float64(7),
		KeyQuestionnaireID:   "3",
		KeyQuestionnaireName: "Q1",
		KeyPeriod:            "10/05/2024",
		KeyProjectName:       "P1",
		KeySender:            analyst,
		KeySenderRole:        "QUALITY_ANALYST",
	}

	_, err := r.Send(context.Background(), model.NotificationTypeQuestionnaireReminder, bag)
	require.NoError(t, err)
	require.Len(t, d.commands, 1)
	assert.Equal(t, analyst, d.commands[0].Sender)
	assert.Equal(t, "QUALITY_ANALYST", d.commands[0].SenderRole)
}

func TestRegistry_QuestionnaireReminderStopsAtFirstFailure(t *testing.T) {
	r, d, projects := newTestRegistry()
	projects.On("ListRepresentatives", mock.Anything, int64(1)).Return([]model.Representative{
		{UserID: uuid.New(), FullName: "A"},
		{UserID: uuid.New(), FullName: "B"},
		{UserID: uuid.New(), FullName: "C"},
	}, nil)
	d.failOn = 2
	d.err = notification.ErrAuthorizationDenied

	sent, err := r.Send(context.Background(), model.NotificationTypeQuestionnaireReminder, QuestionnaireReminderContext{
		ProjectID: 1, QuestionnaireID: 1, QuestionnaireName: "Q", Period: "p", ProjectName: "P",
	}.Bag())

	assert.ErrorIs(t, err, notification.ErrAuthorizationDenied)
	assert.Len(t, sent, 1)
	assert.Len(t, d.commands, 2)
}

func TestRegistry_QuestionnaireReminderNoRepresentatives(t *testing.T) {
	r, d, projects := newTestRegistry()
	projects.On("ListRepresentatives", mock.Anything, int64(1)).Return([]model.Representative{}, nil)

	sent, err := r.Send(context.Background(), model.NotificationTypeQuestionnaireReminder, QuestionnaireReminderContext{
		ProjectID: 1, QuestionnaireID: 1, QuestionnaireName: "Q", Period: "p", ProjectName: "P",
	}.Bag())

	require.NoError(t, err)
	assert.Empty(t, sent)
	assert.Empty(t, d.commands)
}

func TestRegistry_QuestionnaireReminderInvalidContext(t *testing.T) {
	r, d, projects := newTestRegistry()

	_, err := r.Send(context.Background(), model.NotificationTypeQuestionnaireReminder, Context{
		KeyProjectID:   "seven",
		KeyProjectName: "P1",
	})

	assert.ErrorIs(t, err, ErrInvalidContext)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.CodeOf(err))
	projects.AssertNotCalled(t, "ListRepresentatives", mock.Anything, mock.Anything)
	assert.Empty(t, d.commands)
}

func TestRegistry_PasswordRecovery(t *testing.T) {
	r, d, _ := newTestRegistry()
	recipient := party("ana")

	_, err := r.Send(context.Background(), model.NotificationTypePasswordRecovery, Context{
		KeyRecipient:    recipient,
		KeyRecoveryLink: "https://app.example.com/reset?token=abc",
		KeyExpiresIn:    "30 minutos",
	})
	require.NoError(t, err)
	require.Len(t, d.commands, 1)
	assert.Equal(t, recipient, d.commands[0].Recipient)
	assert.Equal(t, systemParty, d.commands[0].Sender)
	assert.Equal(t, "https://app.example.com/reset?token=abc", d.commands[0].Context["recoveryLink"])

	_, err = r.Send(context.Background(), model.NotificationTypePasswordRecovery, Context{
		KeyRecipient:    recipient,
		KeyRecoveryLink: "not a link",
		KeyExpiresIn:    "30 minutos",
	})
	assert.ErrorIs(t, err, ErrInvalidContext)
}

func TestRegistry_NewUserCredentials(t *testing.T) {
	r, d, _ := newTestRegistry()

	_, err := r.Send(context.Background(), model.NotificationTypeNewUserCredentials, Context{
		KeyRecipient:         map[string]any{"userId": uuid.NewString(), "fullName": "Ana", "email": "ana@example.com"},
		KeyLogin:             "ana",
		KeyTemporaryPassword: "Tmp#1234",
		KeyAccessLink:        "https://app.example.com",
	})
	require.NoError(t, err)
	require.Len(t, d.commands, 1)
	assert.Equal(t, "Ana", d.commands[0].Recipient.FullName)
	assert.Equal(t, "Tmp#1234", d.commands[0].Context["temporaryPassword"])
}

func TestRegistry_ProjectAssignment(t *testing.T) {
	r, d, _ := newTestRegistry()
	manager := party("manager")

	_, err := r.Send(context.Background(), model.NotificationTypeProjectAssignment, Context{
		KeySender:          manager,
		KeySenderRole:      "PROJECT_MANAGER",
		KeyRecipient:       party("rep"),
		KeyProjectName:     "P1",
		KeyAdminContact:    "admin@example.com",
		KeyRoleNames:       []any{"REPRESENTANTE", "QUALITY_ANALYST"},
		KeyTimelineSummary: "3 etapas",
		KeyStartDate:       time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		KeyEndDate:         "2024-12-31",
	})
	require.NoError(t, err)
	require.Len(t, d.commands, 1)

	cmd := d.commands[0]
	assert.Equal(t, manager, cmd.Sender)
	assert.Equal(t, "PROJECT_MANAGER", cmd.SenderRole)
	assert.Equal(t, "REPRESENTANTE, QUALITY_ANALYST", cmd.Context["roleNames"])
	assert.Equal(t, "10/05/2024", cmd.Context["startDate"])
	assert.Equal(t, "31/12/2024", cmd.Context["endDate"])
}

func TestRegistry_ProjectAssignmentOpenEnded(t *testing.T) {
	r, d, _ := newTestRegistry()

	_, err := r.Send(context.Background(), model.NotificationTypeProjectAssignment, Context{
		KeySender:       party("manager"),
		KeyRecipient:    party("rep"),
		KeyProjectName:  "P1",
		KeyAdminContact: "admin@example.com",
		KeyRoleNames:    "REPRESENTANTE",
		KeyStartDate:    "10/05/2024",
	})
	require.NoError(t, err)
	assert.Equal(t, openEnded, d.commands[0].Context["endDate"])
}

func TestRegistry_ProjectAssignmentRequiresSender(t *testing.T) {
	r, d, _ := newTestRegistry()

	_, err := r.Send(context.Background(), model.NotificationTypeProjectAssignment, Context{
		KeyRecipient:    party("rep"),
		KeyProjectName:  "P1",
		KeyAdminContact: "admin@example.com",
		KeyRoleNames:    []string{"REPRESENTANTE"},
		KeyStartDate:    "2024-05-10",
	})
	assert.ErrorIs(t, err, ErrInvalidContext)
	assert.Empty(t, d.commands)
}

func TestRegistry_QuestionnaireSubmittedAndCompleted(t *testing.T) {
	r, d, _ := newTestRegistry()
	rep := party("rep")
	bag := Context{
		KeySender:            rep,
		KeySenderRole:        "REPRESENTANTE",
		KeyRecipient:         party("analyst"),
		KeyProjectName:       "P1",
		KeyQuestionnaireName: "Q1",
	}

	_, err := r.Send(context.Background(), model.NotificationTypeQuestionnaireSubmitted, bag)
	require.NoError(t, err)
	_, err = r.Send(context.Background(), model.NotificationTypeQuestionnaireCompleted, bag)
	require.NoError(t, err)

	require.Len(t, d.commands, 2)
	assert.Equal(t, "QUESTIONNAIRE_SUBMITTED", d.commands[0].TemplateKey)
	assert.Equal(t, "QUESTIONNAIRE_COMPLETED", d.commands[1].TemplateKey)
	assert.Equal(t, "rep", d.commands[0].Context["senderName"])
}

func TestRegistry_DeadlineReminder(t *testing.T) {
	r, d, _ := newTestRegistry()

	_, err := r.Send(context.Background(), model.NotificationTypeDeadlineReminder, Context{
		KeyRecipient:         party("rep"),
		KeyProjectName:       "P1",
		KeyQuestionnaireName: "Q1",
		KeyDeadline:          "2024-05-20",
		KeyDaysRemaining:     3,
	})
	require.NoError(t, err)
	assert.Equal(t, "20/05/2024", d.commands[0].Context["deadline"])
	assert.Equal(t, "3", d.commands[0].Context["daysRemaining"])

	_, err = r.Send(context.Background(), model.NotificationTypeDeadlineReminder, Context{
		KeyRecipient:         party("rep"),
		KeyProjectName:       "P1",
		KeyQuestionnaireName: "Q1",
		KeyDeadline:          "2024-05-20",
	})
	assert.ErrorIs(t, err, ErrInvalidContext)
}

func TestRegistry_Default(t *testing.T) {
	r, d, _ := newTestRegistry()

	_, err := r.Send(context.Background(), model.NotificationTypeDefault, Context{
		KeySender:    party("admin"),
		KeyRecipient: party("rep"),
		KeyTitle:     "Aviso",
		KeyMessage:   "Manutenção às 22h",
	})
	require.NoError(t, err)
	assert.Equal(t, "Aviso", d.commands[0].Context["title"])
	assert.Equal(t, "Manutenção às 22h", d.commands[0].Context["message"])

	_, err = r.Send(context.Background(), model.NotificationTypeDefault, nil)
	assert.ErrorIs(t, err, ErrInvalidContext)
}

func TestRegistry_DispatchErrorPropagates(t *testing.T) {
	r, d, _ := newTestRegistry()
	d.failOn = 1
	d.err = errors.New("db down")

	_, err := r.Send(context.Background(), model.NotificationTypeDefault, Context{
		KeySender:    party("admin"),
		KeyRecipient: party("rep"),
		KeyTitle:     "t",
		KeyMessage:   "m",
	})
	assert.Same(t, d.err, err)
}

func TestContext_Accessors(t *testing.T) {
	bag := Context{
		"int":     42,
		"float":   float64(7),
		"frac":    1.5,
		"text":    "  hi ",
		"list":    []any{"a", 1},
		"badDate": "yesterday",
	}

	n, err := bag.Int64("float")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = bag.Int64("frac")
	assert.Error(t, err)

	s, err := bag.String("int")
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	s, err = bag.String("text")
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	_, err = bag.Strings("list")
	assert.Error(t, err)

	_, err = bag.Time("badDate")
	assert.Error(t, err)

	missing, err := bag.Party("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
