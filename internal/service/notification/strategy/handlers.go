package strategy

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jwalitptl/compliance-api/internal/model"
)

const openEnded = "sem data de término"

// questionnaireReminder notifies every representative of the project.
func (r *Registry) questionnaireReminder(ctx context.Context, bag Context) ([]*model.Notification, error) {
	rd := &reader{bag: bag}
	typed := QuestionnaireReminderContext{
		ProjectID:         rd.int64(KeyProjectID),
		QuestionnaireID:   rd.int64(KeyQuestionnaireID),
		QuestionnaireName: rd.str(KeyQuestionnaireName),
		Period:            rd.str(KeyPeriod),
		ProjectName:       rd.str(KeyProjectName),
	}
	sender, role := r.sender(rd)
	if err := r.check(rd, typed); err != nil {
		return nil, err
	}

	reps, err := r.projects.ListRepresentatives(ctx, typed.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list representatives of project %d: %w", typed.ProjectID, err)
	}
	if len(reps) == 0 {
		r.log.Warn("project has no representatives to remind",
			"project_id", typed.ProjectID,
			"questionnaire_id", typed.QuestionnaireID,
		)
		return []*model.Notification{}, nil
	}

	sent := make([]*model.Notification, 0, len(reps))
	for _, rep := range reps {
		values := map[string]string{
			KeyProjectID:         strconv.FormatInt(typed.ProjectID, 10),
			KeyProjectName:       typed.ProjectName,
			KeyQuestionnaireID:   strconv.FormatInt(typed.QuestionnaireID, 10),
			KeyQuestionnaireName: typed.QuestionnaireName,
			KeyPeriod:            typed.Period,
		}
		n, err := r.dispatchOne(ctx, model.NotificationTypeQuestionnaireReminder, sender, role, rep.Party(), values)
		if err != nil {
			return sent, err
		}
		sent = append(sent, n...)
	}
	return sent, nil
}

func (r *Registry) passwordRecovery(ctx context.Context, bag Context) ([]*model.Notification, error) {
	rd := &reader{bag: bag}
	typed := passwordRecoveryContext{
		Recipient:    rd.party(KeyRecipient),
		RecoveryLink: rd.str(KeyRecoveryLink),
		ExpiresIn:    rd.str(KeyExpiresIn),
	}
	sender, role := r.sender(rd)
	if err := r.check(rd, typed); err != nil {
		return nil, err
	}

	return r.dispatchOne(ctx, model.NotificationTypePasswordRecovery, sender, role, *typed.Recipient, map[string]string{
		KeyRecoveryLink: typed.RecoveryLink,
		KeyExpiresIn:    typed.ExpiresIn,
	})
}

func (r *Registry) newUserCredentials(ctx context.Context, bag Context) ([]*model.Notification, error) {
	rd := &reader{bag: bag}
	typed := newUserCredentialsContext{
		Recipient:         rd.party(KeyRecipient),
		Login:             rd.str(KeyLogin),
		TemporaryPassword: rd.str(KeyTemporaryPassword),
		AccessLink:        rd.str(KeyAccessLink),
	}
	sender, role := r.sender(rd)
	if err := r.check(rd, typed); err != nil {
		return nil, err
	}

	return r.dispatchOne(ctx, model.NotificationTypeNewUserCredentials, sender, role, *typed.Recipient, map[string]string{
		KeyLogin:             typed.Login,
		KeyTemporaryPassword: typed.TemporaryPassword,
		KeyAccessLink:        typed.AccessLink,
	})
}

func (r *Registry) projectAssignment(ctx context.Context, bag Context) ([]*model.Notification, error) {
	rd := &reader{bag: bag}
	typed := projectAssignmentContext{
		Sender:          rd.party(KeySender),
		Recipient:       rd.party(KeyRecipient),
		ProjectName:     rd.str(KeyProjectName),
		AdminContact:    rd.str(KeyAdminContact),
		RoleNames:       rd.strings(KeyRoleNames),
		TimelineSummary: rd.str(KeyTimelineSummary),
		StartDate:       rd.time(KeyStartDate),
		EndDate:         rd.time(KeyEndDate),
	}
	role := rd.str(KeySenderRole)
	if err := r.check(rd, typed); err != nil {
		return nil, err
	}

	endDate := openEnded
	if typed.EndDate != nil {
		endDate = FormatDate(*typed.EndDate)
	}

	return r.dispatchOne(ctx, model.NotificationTypeProjectAssignment, *typed.Sender, role, *typed.Recipient, map[string]string{
		KeyProjectName:     typed.ProjectName,
		KeyAdminContact:    typed.AdminContact,
		KeyRoleNames:       strings.Join(typed.RoleNames, ", "),
		KeyTimelineSummary: typed.TimelineSummary,
		KeyStartDate:       FormatDate(*typed.StartDate),
		KeyEndDate:         endDate,
	})
}

func (r *Registry) questionnaireSubmitted(ctx context.Context, bag Context) ([]*model.Notification, error) {
	return r.questionnaireEvent(ctx, model.NotificationTypeQuestionnaireSubmitted, bag)
}

func (r *Registry) questionnaireCompleted(ctx context.Context, bag Context) ([]*model.Notification, error) {
	return r.questionnaireEvent(ctx, model.NotificationTypeQuestionnaireCompleted, bag)
}

func (r *Registry) questionnaireEvent(ctx context.Context, t model.NotificationType, bag Context) ([]*model.Notification, error) {
	rd := &reader{bag: bag}
	typed := questionnaireEventContext{
		Sender:            rd.party(KeySender),
		Recipient:         rd.party(KeyRecipient),
		ProjectName:       rd.str(KeyProjectName),
		QuestionnaireName: rd.str(KeyQuestionnaireName),
	}
	role := rd.str(KeySenderRole)
	if err := r.check(rd, typed); err != nil {
		return nil, err
	}

	return r.dispatchOne(ctx, t, *typed.Sender, role, *typed.Recipient, map[string]string{
		KeyProjectName:       typed.ProjectName,
		KeyQuestionnaireName: typed.QuestionnaireName,
	})
}

func (r *Registry) deadlineReminder(ctx context.Context, bag Context) ([]*model.Notification, error) {
	rd := &reader{bag: bag}
	typed := deadlineReminderContext{
		Recipient:         rd.party(KeyRecipient),
		ProjectName:       rd.str(KeyProjectName),
		QuestionnaireName: rd.str(KeyQuestionnaireName),
		Deadline:          rd.time(KeyDeadline),
		DaysRemaining:     rd.int64(KeyDaysRemaining),
	}
	if !bag.has(KeyDaysRemaining) {
		rd.fail(fmt.Errorf("%s: required", KeyDaysRemaining))
	}
	sender, role := r.sender(rd)
	if err := r.check(rd, typed); err != nil {
		return nil, err
	}

	return r.dispatchOne(ctx, model.NotificationTypeDeadlineReminder, sender, role, *typed.Recipient, map[string]string{
		KeyProjectName:       typed.ProjectName,
		KeyQuestionnaireName: typed.QuestionnaireName,
		KeyDeadline:          FormatDate(*typed.Deadline),
		KeyDaysRemaining:     strconv.FormatInt(typed.DaysRemaining, 10),
	})
}

func (r *Registry) defaultNotification(ctx context.Context, bag Context) ([]*model.Notification, error) {
	rd := &reader{bag: bag}
	typed := defaultContext{
		Sender:    rd.party(KeySender),
		Recipient: rd.party(KeyRecipient),
		Title:     rd.str(KeyTitle),
		Message:   rd.str(KeyMessage),
	}
	role := rd.str(KeySenderRole)
	if err := r.check(rd, typed); err != nil {
		return nil, err
	}

	return r.dispatchOne(ctx, model.NotificationTypeDefault, *typed.Sender, role, *typed.Recipient, map[string]string{
		KeyTitle:   typed.Title,
		KeyMessage: typed.Message,
	})
}
