package notification

import (
	"context"
	"fmt"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
	"github.com/jwalitptl/compliance-api/pkg/logger"
)

// Role names used in the default templates.
const (
	RoleAdmin          = "ADMIN"
	RoleSystem         = "SYSTEM"
	RoleProjectManager = "PROJECT_MANAGER"
	RoleQualityAnalyst = "QUALITY_ANALYST"
	RoleRepresentative = "REPRESENTANTE"
)

var (
	internalOnly  = []model.Channel{model.ChannelInternal}
	emailOnly     = []model.Channel{model.ChannelEmail}
	internalEmail = []model.Channel{model.ChannelInternal, model.ChannelEmail}
)

// DefaultTemplates returns one template per notification type.
func DefaultTemplates() []model.NotificationTemplate {
	return []model.NotificationTemplate{
		{
			Key:        model.NotificationTypeQuestionnaireReminder.TemplateKey(),
			WhoCanSend: []string{RoleAdmin, RoleProjectManager, RoleQualityAnalyst, RoleSystem},
			Recipients: []string{RoleRepresentative},
			Title:      "Pendência: {questionnaireName}",
			Body: "Olá {recipientName}, o questionário {questionnaireName} do projeto {projectName} " +
				"está disponível para resposta no período {period}.",
			Channels: internalEmail,
		},
		{
			Key:        model.NotificationTypePasswordRecovery.TemplateKey(),
			Recipients: []string{RoleAdmin, RoleProjectManager, RoleQualityAnalyst, RoleRepresentative},
			Title:      "Recuperação de senha",
			Body: "Olá {recipientName}, para redefinir sua senha acesse {recoveryLink}.\n\n" +
				"O link expira em {expiresIn}.",
			Channels: emailOnly,
		},
		{
			Key:        model.NotificationTypeNewUserCredentials.TemplateKey(),
			WhoCanSend: []string{RoleAdmin, RoleSystem},
			Recipients: []string{RoleProjectManager, RoleQualityAnalyst, RoleRepresentative},
			Title:      "Bem-vindo(a) à plataforma",
			Body: "Olá {recipientName}, seu acesso foi criado.\n\n" +
				"Login: {login}\n\nSenha temporária: {temporaryPassword}\n\n" +
				"Acesse {accessLink} para entrar.",
			Channels: emailOnly,
		},
		{
			Key:        model.NotificationTypeProjectAssignment.TemplateKey(),
			WhoCanSend: []string{RoleAdmin, RoleProjectManager},
			Recipients: []string{RoleProjectManager, RoleQualityAnalyst, RoleRepresentative},
			Title:      "Você foi designado(a) ao projeto {projectName}",
			Body: "Olá {recipientName}, você foi designado(a) ao projeto {projectName} como {roleNames}.\n\n" +
				"Cronograma: {timelineSummary} ({startDate} a {endDate}).\n\n" +
				"Contato do administrador: {adminContact}.",
			Channels: internalEmail,
		},
		{
			Key:        model.NotificationTypeQuestionnaireSubmitted.TemplateKey(),
			WhoCanSend: []string{RoleRepresentative, RoleAdmin},
			Recipients: []string{RoleQualityAnalyst, RoleProjectManager},
			Title:      "Questionário enviado: {questionnaireName}",
			Body:       "{senderName} enviou o questionário {questionnaireName} do projeto {projectName}.",
			Channels:   internalOnly,
		},
		{
			Key:        model.NotificationTypeQuestionnaireCompleted.TemplateKey(),
			WhoCanSend: []string{RoleQualityAnalyst, RoleAdmin},
			Recipients: []string{RoleRepresentative, RoleProjectManager},
			Title:      "Questionário concluído: {questionnaireName}",
			Body:       "O questionário {questionnaireName} do projeto {projectName} foi concluído por {senderName}.",
			Channels:   internalEmail,
		},
		{
			Key:        model.NotificationTypeDeadlineReminder.TemplateKey(),
			WhoCanSend: []string{RoleAdmin, RoleProjectManager, RoleQualityAnalyst, RoleSystem},
			Recipients: []string{RoleRepresentative},
			Title:      "Prazo se aproximando: {questionnaireName}",
			Body: "Olá {recipientName}, faltam {daysRemaining} dia(s) para o prazo de {deadline} " +
				"do questionário {questionnaireName} do projeto {projectName}.",
			Channels: internalEmail,
		},
		{
			Key:      model.NotificationTypeDefault.TemplateKey(),
			Title:    "{title}",
			Body:     "{message}",
			Channels: internalOnly,
		},
	}
}

type SeedResult struct {
	Inserted int
	Skipped  int
}

// Seeder inserts the default templates that do not exist yet. Existing
// templates are never modified.
type Seeder struct {
	repo      repository.NotificationTemplateRepository
	log       *logger.Logger
	templates []model.NotificationTemplate
}

func NewSeeder(repo repository.NotificationTemplateRepository, log *logger.Logger) *Seeder {
	return &Seeder{repo: repo, log: log, templates: DefaultTemplates()}
}

func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	var result SeedResult
	for i := range s.templates {
		tmpl := s.templates[i]
		inserted, err := s.repo.CreateIfAbsent(ctx, &tmpl)
		if err != nil {
			return result, fmt.Errorf("failed to seed template %s: %w", tmpl.Key, err)
		}
		if inserted {
			result.Inserted++
			s.log.Info("notification template seeded", "template", tmpl.Key)
		} else {
			result.Skipped++
		}
	}

	s.log.Info("notification templates seeded", "inserted", result.Inserted, "skipped", result.Skipped)
	return result, nil
}
