package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mcnijman/go-emailaddress"

	"github.com/jwalitptl/compliance-api/internal/email"
	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
	"github.com/jwalitptl/compliance-api/internal/service/audit"
	apperrors "github.com/jwalitptl/compliance-api/pkg/errors"
	"github.com/jwalitptl/compliance-api/pkg/logger"
	"github.com/jwalitptl/compliance-api/pkg/messaging"
	"github.com/jwalitptl/compliance-api/pkg/metrics"
)

var (
	ErrTemplateNotFound = errors.New("notification template not found")
	ErrNotRecipient     = errors.New("only the recipient may access this notification")
)

// Auditor records who changed which notification.
type Auditor interface {
	Log(ctx context.Context, actorID uuid.UUID, action, entityType, entityID string, opts *audit.LogOptions)
}

// SendInternalCommand asks for one notification rendered from a template.
type SendInternalCommand struct {
	TemplateKey string                  `validate:"required"`
	Sender      model.NotificationParty `validate:"-"`
	Recipient   model.NotificationParty
	// SenderRole is the sender's primary role, checked alongside Sender.Roles.
	SenderRole string
	Context    map[string]string
}

type Service struct {
	repo      repository.NotificationRepository
	templates repository.NotificationTemplateRepository
	mailer    email.Sender
	broker    messaging.Broker
	auditor   Auditor
	metrics   *metrics.Metrics
	log       *logger.Logger
	validate  *validator.Validate
	now       func() time.Time
}

func NewService(
	repo repository.NotificationRepository,
	templates repository.NotificationTemplateRepository,
	mailer email.Sender,
	broker messaging.Broker,
	auditor Auditor,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	if mailer == nil {
		mailer = email.NopSender{}
	}
	if broker == nil {
		broker = messaging.NopBroker{}
	}
	return &Service{
		repo:      repo,
		templates: templates,
		mailer:    mailer,
		broker:    broker,
		auditor:   auditor,
		metrics:   m,
		log:       log,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// SendInternal renders the template for the command, persists the resulting
// inbox entry and, when the template has the EMAIL channel, mails it. Only the
// lookup, the authorization check and the save can fail the call.
func (s *Service) SendInternal(ctx context.Context, cmd SendInternalCommand) (*model.Notification, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return nil, apperrors.BadRequest("invalid send command", err)
	}

	tmpl, err := s.templates.FindByKey(ctx, cmd.TemplateKey)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("notification template",
				fmt.Errorf("%w: %s", ErrTemplateNotFound, cmd.TemplateKey))
		}
		return nil, fmt.Errorf("failed to load template %s: %w", cmd.TemplateKey, err)
	}

	if err := ValidateCanSend(tmpl.WhoCanSend, cmd.SenderRole, cmd.Sender.Roles); err != nil {
		s.metrics.NotificationsDenied.WithLabelValues(tmpl.Key).Inc()
		s.log.Warn("notification send denied",
			"template", tmpl.Key,
			"sender_id", cmd.Sender.UserID.String(),
			"sender_role", cmd.SenderRole,
		)
		return nil, err
	}

	notification := &model.Notification{
		Sender:      cmd.Sender,
		Recipient:   cmd.Recipient,
		Title:       ResolvePlaceholders(tmpl.Title, cmd.Context),
		Content:     ResolvePlaceholders(tmpl.Body, cmd.Context),
		Status:      model.NotificationStatusUnread,
		TemplateKey: tmpl.Key,
		CreatedAt:   s.now(),
	}

	saved, err := s.repo.Save(ctx, notification)
	if err != nil {
		return nil, err
	}
	s.metrics.NotificationsSent.WithLabelValues(tmpl.Key).Inc()

	s.auditor.Log(ctx, cmd.Sender.UserID, model.AuditActionCreate, model.AuditEntityNotification, saved.ID.String(), &audit.LogOptions{
		Metadata: map[string]interface{}{
			"template_key": tmpl.Key,
			"recipient_id": saved.Recipient.UserID,
		},
	})

	s.publish(ctx, saved)

	if tmpl.HasChannel(model.ChannelEmail) {
		s.sendEmail(ctx, saved)
	}

	return saved, nil
}

func (s *Service) publish(ctx context.Context, n *model.Notification) {
	event := model.NotificationEvent{
		NotificationID: n.ID,
		RecipientID:    n.Recipient.UserID,
		TemplateKey:    n.TemplateKey,
		Title:          n.Title,
		CreatedAt:      n.CreatedAt,
	}
	if err := s.broker.Publish(ctx, messaging.ChannelNotifications, event); err != nil {
		s.metrics.RealtimeFailures.Inc()
		s.log.Error(err, "failed to publish notification event", "notification_id", n.ID.String())
	}
}

// sendEmail never fails the dispatch; the inbox entry is already stored.
func (s *Service) sendEmail(ctx context.Context, n *model.Notification) {
	fail := func(err error, msg string) {
		s.metrics.EmailFailures.WithLabelValues(n.TemplateKey).Inc()
		s.log.Error(err, msg,
			"notification_id", n.ID.String(),
			"recipient_id", n.Recipient.UserID.String(),
		)
	}

	if _, err := emailaddress.Parse(n.Recipient.Email); err != nil {
		fail(err, "recipient has no valid email address")
		return
	}

	body, err := email.RenderHTML(n.Title, n.Content)
	if err != nil {
		fail(err, "failed to render notification email")
		return
	}

	if err := s.mailer.Send(ctx, n.Recipient.Email, n.Title, body); err != nil {
		fail(err, "failed to send notification email")
	}
}

// Get returns a notification visible to actorID.
func (s *Service) Get(ctx context.Context, id, actorID uuid.UUID) (*model.Notification, error) {
	n, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Recipient.UserID != actorID {
		return nil, apperrors.Forbidden("notification belongs to another user", ErrNotRecipient)
	}
	return n, nil
}

func (s *Service) ListForRecipient(ctx context.Context, userID uuid.UUID, page model.Pagination) (*model.Page[*model.Notification], error) {
	result, err := s.repo.ListForRecipient(ctx, userID, page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return result, nil
}

// UpdateStatus moves a notification to status. Only its recipient may do so.
func (s *Service) UpdateStatus(ctx context.Context, id, actorID uuid.UUID, status model.NotificationStatus) (*model.Notification, error) {
	if !status.Valid() {
		return nil, apperrors.BadRequest("invalid notification status", fmt.Errorf("%w: %q", model.ErrInvalidStatus, status))
	}

	n, err := s.Get(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	previous := n.Status
	if err := n.TransitionTo(status, s.now()); err != nil {
		return nil, apperrors.BadRequest("invalid notification status", err)
	}

	if err := s.repo.UpdateStatus(ctx, n.ID, n.Status, *n.UpdatedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("notification", err)
		}
		return nil, fmt.Errorf("failed to update notification status: %w", err)
	}

	s.auditor.Log(ctx, actorID, model.AuditActionStatusUpdate, model.AuditEntityNotification, n.ID.String(), &audit.LogOptions{
		Changes: map[string]interface{}{
			"from": previous,
			"to":   n.Status,
		},
	})

	return n, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("notification", err)
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}
