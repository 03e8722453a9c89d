// Package strategy maps each notification type to the handler that turns a
// loosely typed context into dispatch commands.
package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/service/notification"
	apperrors "github.com/jwalitptl/compliance-api/pkg/errors"
	"github.com/jwalitptl/compliance-api/pkg/logger"
)

var (
	ErrUnsupportedNotificationType = errors.New("unsupported notification type")
	ErrInvalidContext              = errors.New("invalid notification context")
)

// Dispatcher sends one rendered notification.
type Dispatcher interface {
	SendInternal(ctx context.Context, cmd notification.SendInternalCommand) (*model.Notification, error)
}

// RepresentativeFinder lists the users answering for a project.
type RepresentativeFinder interface {
	ListRepresentatives(ctx context.Context, projectID int64) ([]model.Representative, error)
}

// Handler builds and dispatches the notifications for one type.
type Handler func(ctx context.Context, bag Context) ([]*model.Notification, error)

type Registry struct {
	dispatcher Dispatcher
	projects   RepresentativeFinder
	system     model.NotificationParty
	validate   *validator.Validate
	log        *logger.Logger
	handlers   map[model.NotificationType]Handler
}

// NewRegistry wires every known notification type. system is the sender used
// when a type may be sent without a human sender.
func NewRegistry(dispatcher Dispatcher, projects RepresentativeFinder, system model.NotificationParty, log *logger.Logger) *Registry {
	r := &Registry{
		dispatcher: dispatcher,
		projects:   projects,
		system:     system,
		validate:   validator.New(),
		log:        log,
	}
	r.handlers = map[model.NotificationType]Handler{
		model.NotificationTypeQuestionnaireReminder:  r.questionnaireReminder,
		model.NotificationTypePasswordRecovery:       r.passwordRecovery,
		model.NotificationTypeNewUserCredentials:     r.newUserCredentials,
		model.NotificationTypeProjectAssignment:      r.projectAssignment,
		model.NotificationTypeQuestionnaireSubmitted: r.questionnaireSubmitted,
		model.NotificationTypeQuestionnaireCompleted: r.questionnaireCompleted,
		model.NotificationTypeDeadlineReminder:       r.deadlineReminder,
		model.NotificationTypeDefault:                r.defaultNotification,
	}
	return r
}

func (r *Registry) Supports(t model.NotificationType) bool {
	_, ok := r.handlers[t]
	return ok
}

// Send runs the handler registered for t. A handler addressing several
// recipients stops at the first failure and returns what it already sent.
func (r *Registry) Send(ctx context.Context, t model.NotificationType, bag Context) ([]*model.Notification, error) {
	handler, ok := r.handlers[t]
	if !ok {
		return nil, apperrors.BadRequest("unsupported notification type",
			fmt.Errorf("%w: %q", ErrUnsupportedNotificationType, t))
	}
	if bag == nil {
		bag = Context{}
	}
	return handler(ctx, bag)
}

// check validates a typed context after it was read from the bag.
func (r *Registry) check(rd *reader, typed interface{}) error {
	if err := rd.err(); err != nil {
		return apperrors.BadRequest("invalid notification context", err)
	}
	if err := r.validate.Struct(typed); err != nil {
		return apperrors.BadRequest("invalid notification context", fmt.Errorf("%w: %v", ErrInvalidContext, err))
	}
	return nil
}

// sender returns the explicit sender from the bag, or the system party.
func (r *Registry) sender(rd *reader) (model.NotificationParty, string) {
	role := rd.str(KeySenderRole)
	if p := rd.party(KeySender); p != nil {
		return *p, role
	}
	if role == "" {
		role = notification.RoleSystem
	}
	return r.system, role
}

func (r *Registry) dispatchOne(ctx context.Context, t model.NotificationType, sender model.NotificationParty, role string, recipient model.NotificationParty, values map[string]string) ([]*model.Notification, error) {
	values[keyRecipientName] = recipient.FullName
	values[keySenderName] = sender.FullName

	n, err := r.dispatcher.SendInternal(ctx, notification.SendInternalCommand{
		TemplateKey: t.TemplateKey(),
		Sender:      sender,
		Recipient:   recipient,
		SenderRole:  role,
		Context:     values,
	})
	if err != nil {
		return nil, err
	}
	return []*model.Notification{n}, nil
}
