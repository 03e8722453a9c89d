// Package mocks holds testify mocks of the collaborators the services depend on.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/pkg/messaging"
)

type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Save(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	args := m.Called(ctx, n)
	if fn, ok := args.Get(0).(func(context.Context, *model.Notification) *model.Notification); ok {
		return fn(ctx, n), args.Error(1)
	}
	if v := args.Get(0); v != nil {
		return v.(*model.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*model.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) ListForRecipient(ctx context.Context, userID uuid.UUID, page model.Pagination) (*model.Page[*model.Notification], error) {
	args := m.Called(ctx, userID, page)
	if v := args.Get(0); v != nil {
		return v.(*model.Page[*model.Notification]), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.NotificationStatus, updatedAt time.Time) error {
	return m.Called(ctx, id, status, updatedAt).Error(0)
}

type NotificationTemplateRepository struct {
	mock.Mock
}

func (m *NotificationTemplateRepository) FindByKey(ctx context.Context, key string) (*model.NotificationTemplate, error) {
	args := m.Called(ctx, key)
	if v := args.Get(0); v != nil {
		return v.(*model.NotificationTemplate), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationTemplateRepository) CreateIfAbsent(ctx context.Context, tmpl *model.NotificationTemplate) (bool, error) {
	args := m.Called(ctx, tmpl)
	return args.Bool(0), args.Error(1)
}

type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) FindAllOrderByIDAsc(ctx context.Context) ([]*model.Project, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*model.Project), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) SaveTimeline(ctx context.Context, project *model.Project) error {
	return m.Called(ctx, project).Error(0)
}

func (m *ProjectRepository) ListRepresentatives(ctx context.Context, projectID int64) ([]model.Representative, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]model.Representative), args.Error(1)
	}
	return nil, args.Error(1)
}

type QuestionnaireRepository struct {
	mock.Mock
}

func (m *QuestionnaireRepository) FindStartingOn(ctx context.Context, day time.Time) ([]*model.Questionnaire, error) {
	args := m.Called(ctx, day)
	if v := args.Get(0); v != nil {
		return v.([]*model.Questionnaire), args.Error(1)
	}
	return nil, args.Error(1)
}

type AuditRepository struct {
	mock.Mock
}

func (m *AuditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *AuditRepository) List(ctx context.Context, filter model.AuditFilter, page model.Pagination) (*model.Page[*model.AuditLog], error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Page[*model.AuditLog]), args.Error(1)
}

func (m *AuditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// EmailSender mocks email.Sender.
type EmailSender struct {
	mock.Mock
}

func (m *EmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	return m.Called(ctx, to, subject, htmlBody).Error(0)
}

type Broker struct {
	mock.Mock
}

var _ messaging.Broker = (*Broker)(nil)

func (m *Broker) Publish(ctx context.Context, channel string, payload interface{}) error {
	return m.Called(ctx, channel, payload).Error(0)
}

func (m *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	args := m.Called(ctx, channel)
	if v := args.Get(0); v != nil {
		return v.(<-chan []byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Broker) Close() error {
	return m.Called().Error(0)
}
