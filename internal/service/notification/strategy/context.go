package strategy

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jwalitptl/compliance-api/internal/model"
)

// Context keys understood by the handlers.
const (
	KeySender            = "sender"
	KeySenderRole        = "senderRole"
	KeyRecipient         = "recipient"
	KeyProjectID         = "projectId"
	KeyProjectName       = "projectName"
	KeyQuestionnaireID   = "questionnaireId"
	KeyQuestionnaireName = "questionnaireName"
	KeyPeriod            = "period"
	KeyRecoveryLink      = "recoveryLink"
	KeyExpiresIn         = "expiresIn"
	KeyLogin             = "login"
	KeyTemporaryPassword = "temporaryPassword"
	KeyAccessLink        = "accessLink"
	KeyAdminContact      = "adminContact"
	KeyRoleNames         = "roleNames"
	KeyTimelineSummary   = "timelineSummary"
	KeyStartDate         = "startDate"
	KeyEndDate           = "endDate"
	KeyDeadline          = "deadline"
	KeyDaysRemaining     = "daysRemaining"
	KeyTitle             = "title"
	KeyMessage           = "message"

	// Placeholders filled by the handlers themselves.
	keyRecipientName = "recipientName"
	keySenderName    = "senderName"
)

// DateLayout renders dates as dd/MM/yyyy.
const DateLayout = "02/01/2006"

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Context is the loosely typed bag a caller hands to the registry. Values may
// be Go values or their decoded-JSON equivalents.
type Context map[string]any

func (c Context) has(key string) bool {
	v, ok := c[key]
	return ok && v != nil
}

// String reads a textual value. Numbers are formatted.
func (c Context) String(key string) (string, error) {
	switch v := c[key].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case int, int32, int64, float64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("%s: expected text, got %T", key, v)
	}
}

// Int64 reads an integral value.
func (c Context) Int64(key string) (int64, error) {
	switch v := c[key].(type) {
	case nil:
		return 0, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s: %v is not an integer", key, v)
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not an integer", key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s: expected integer, got %T", key, v)
	}
}

// Strings reads a list of strings. A single string becomes a one-element list.
func (c Context) Strings(key string) ([]string, error) {
	switch v := c[key].(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d]: expected text, got %T", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: expected list of text, got %T", key, v)
	}
}

// Time reads a date. Strings may be RFC 3339, yyyy-MM-dd or dd/MM/yyyy.
func (c Context) Time(key string) (*time.Time, error) {
	switch v := c[key].(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &v, nil
	case *time.Time:
		return v, nil
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02", DateLayout} {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return &t, nil
			}
		}
		return nil, fmt.Errorf("%s: %q is not a date", key, v)
	default:
		return nil, fmt.Errorf("%s: expected date, got %T", key, v)
	}
}

// Party reads a notification party, either typed or as a decoded JSON object.
func (c Context) Party(key string) (*model.NotificationParty, error) {
	switch v := c[key].(type) {
	case nil:
		return nil, nil
	case model.NotificationParty:
		return &v, nil
	case *model.NotificationParty:
		return v, nil
	case model.Representative:
		p := v.Party()
		return &p, nil
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		var p model.NotificationParty
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("%s: expected notification party, got %T", key, v)
	}
}

// reader collects conversion errors so a handler can read every field and
// report all problems at once.
type reader struct {
	bag  Context
	errs []string
}

func (r *reader) fail(err error) {
	r.errs = append(r.errs, err.Error())
}

func (r *reader) str(key string) string {
	s, err := r.bag.String(key)
	if err != nil {
		r.fail(err)
	}
	return s
}

func (r *reader) int64(key string) int64 {
	n, err := r.bag.Int64(key)
	if err != nil {
		r.fail(err)
	}
	return n
}

func (r *reader) strings(key string) []string {
	s, err := r.bag.Strings(key)
	if err != nil {
		r.fail(err)
	}
	return s
}

func (r *reader) time(key string) *time.Time {
	t, err := r.bag.Time(key)
	if err != nil {
		r.fail(err)
	}
	return t
}

func (r *reader) party(key string) *model.NotificationParty {
	p, err := r.bag.Party(key)
	if err != nil {
		r.fail(err)
	}
	return p
}

func (r *reader) err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidContext, strings.Join(r.errs, "; "))
}

// QuestionnaireReminderContext carries what a questionnaire reminder needs.
type QuestionnaireReminderContext struct {
	ProjectID         int64  `validate:"gt=0"`
	QuestionnaireID   int64  `validate:"gt=0"`
	QuestionnaireName string `validate:"required"`
	Period            string `validate:"required"`
	ProjectName       string `validate:"required"`
}

func (q QuestionnaireReminderContext) Bag() Context {
	return Context{
		KeyProjectID:         q.ProjectID,
		KeyQuestionnaireID:   q.QuestionnaireID,
		KeyQuestionnaireName: q.QuestionnaireName,
		KeyPeriod:            q.Period,
		KeyProjectName:       q.ProjectName,
	}
}

type passwordRecoveryContext struct {
	Recipient    *model.NotificationParty `validate:"required"`
	RecoveryLink string                   `validate:"required,url"`
	ExpiresIn    string                   `validate:"required"`
}

type newUserCredentialsContext struct {
	Recipient         *model.NotificationParty `validate:"required"`
	Login             string                   `validate:"required"`
	TemporaryPassword string                   `validate:"required"`
	AccessLink        string                   `validate:"required,url"`
}

type projectAssignmentContext struct {
	Sender          *model.NotificationParty `validate:"required"`
	Recipient       *model.NotificationParty `validate:"required"`
	ProjectName     string                   `validate:"required"`
	AdminContact    string                   `validate:"required"`
	RoleNames       []string                 `validate:"required,min=1,dive,required"`
	TimelineSummary string
	StartDate       *time.Time `validate:"required"`
	EndDate         *time.Time
}

type questionnaireEventContext struct {
	Sender            *model.NotificationParty `validate:"required"`
	Recipient         *model.NotificationParty `validate:"required"`
	ProjectName       string                   `validate:"required"`
	QuestionnaireName string                   `validate:"required"`
}

type deadlineReminderContext struct {
	Recipient         *model.NotificationParty `validate:"required"`
	ProjectName       string                   `validate:"required"`
	QuestionnaireName string                   `validate:"required"`
	Deadline          *time.Time               `validate:"required"`
	DaysRemaining     int64                    `validate:"gte=0"`
}

type defaultContext struct {
	Sender    *model.NotificationParty `validate:"required"`
	Recipient *model.NotificationParty `validate:"required"`
	Title     string                   `validate:"required"`
	Message   string                   `validate:"required"`
}
