package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusUnread   NotificationStatus = "UNREAD"
	NotificationStatusRead     NotificationStatus = "READ"
	NotificationStatusArchived NotificationStatus = "ARCHIVED"
)

func (s NotificationStatus) Valid() bool {
	switch s {
	case NotificationStatusUnread, NotificationStatusRead, NotificationStatusArchived:
		return true
	}
	return false
}

// Channel is a delivery medium a template fans out to.
type Channel string

const (
	ChannelInternal Channel = "INTERNAL"
	ChannelEmail    Channel = "EMAIL"
)

type NotificationType string

const (
	NotificationTypeQuestionnaireReminder  NotificationType = "QUESTIONNAIRE_REMINDER"
	NotificationTypePasswordRecovery       NotificationType = "PASSWORD_RECOVERY"
	NotificationTypeNewUserCredentials     NotificationType = "NEW_USER_CREDENTIALS"
	NotificationTypeProjectAssignment      NotificationType = "PROJECT_ASSIGNMENT"
	NotificationTypeQuestionnaireSubmitted NotificationType = "QUESTIONNAIRE_SUBMITTED"
	NotificationTypeQuestionnaireCompleted NotificationType = "QUESTIONNAIRE_COMPLETED"
	NotificationTypeDeadlineReminder       NotificationType = "DEADLINE_REMINDER"
	NotificationTypeDefault                NotificationType = "NOTIFICATION_DEFAULT"
)

// NotificationTypes lists every known type in declaration order.
var NotificationTypes = []NotificationType{
	NotificationTypeQuestionnaireReminder,
	NotificationTypePasswordRecovery,
	NotificationTypeNewUserCredentials,
	NotificationTypeProjectAssignment,
	NotificationTypeQuestionnaireSubmitted,
	NotificationTypeQuestionnaireCompleted,
	NotificationTypeDeadlineReminder,
	NotificationTypeDefault,
}

// TemplateKey is the key of the template that renders this type.
func (t NotificationType) TemplateKey() string {
	return string(t)
}

// NotificationParty is an actor acting as sender or recipient. It is stored
// embedded in the notification row as JSON.
type NotificationParty struct {
	UserID   uuid.UUID `json:"userId" validate:"required"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
	Roles    []string  `json:"roles"`
}

func (p NotificationParty) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *NotificationParty) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*p = NotificationParty{}
		return nil
	default:
		return fmt.Errorf("unsupported type %T for notification party", src)
	}
	return json.Unmarshal(raw, p)
}

// Notification is an internal inbox entry. Title and content are rendered at
// creation and never change; only Status and UpdatedAt move afterwards.
type Notification struct {
	ID          uuid.UUID          `json:"id" db:"id"`
	Sender      NotificationParty  `json:"sender" db:"sender"`
	Recipient   NotificationParty  `json:"recipient" db:"recipient"`
	Title       string             `json:"title" db:"title"`
	Content     string             `json:"content" db:"content"`
	Status      NotificationStatus `json:"status" db:"status"`
	TemplateKey string             `json:"templateKey" db:"template_key"`
	CreatedAt   time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt   *time.Time         `json:"updatedAt,omitempty" db:"updated_at"`
}

var ErrInvalidStatus = errors.New("invalid notification status")

// TransitionTo moves the notification to status and stamps UpdatedAt.
func (n *Notification) TransitionTo(status NotificationStatus, at time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	n.Status = status
	n.UpdatedAt = &at
	return nil
}

// NotificationTemplate defines how a notification event is rendered, who may
// send it and over which channels. Recipients documents the intended audience
// and is not enforced.
type NotificationTemplate struct {
	Key        string    `json:"key"`
	WhoCanSend []string  `json:"whoCanSend"`
	Recipients []string  `json:"recipients"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Channels   []Channel `json:"channels"`
}

func (t *NotificationTemplate) HasChannel(c Channel) bool {
	for _, ch := range t.Channels {
		if ch == c {
			return true
		}
	}
	return false
}

// NotificationEvent is published on the realtime channel after persistence.
type NotificationEvent struct {
	NotificationID uuid.UUID `json:"notificationId"`
	RecipientID    uuid.UUID `json:"recipientId"`
	TemplateKey    string    `json:"templateKey"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"createdAt"`
}
