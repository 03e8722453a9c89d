// Package bootstrap builds the process-wide dependencies shared by the api
// and worker binaries from a loaded configuration.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/compliance-api/internal/config"
	"github.com/jwalitptl/compliance-api/internal/email"
	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
	"github.com/jwalitptl/compliance-api/internal/repository/cache"
	"github.com/jwalitptl/compliance-api/internal/repository/postgres"
	"github.com/jwalitptl/compliance-api/internal/service/audit"
	"github.com/jwalitptl/compliance-api/internal/service/notification"
	"github.com/jwalitptl/compliance-api/internal/service/notification/strategy"
	"github.com/jwalitptl/compliance-api/pkg/circuitbreaker"
	"github.com/jwalitptl/compliance-api/pkg/logger"
	"github.com/jwalitptl/compliance-api/pkg/messaging"
	"github.com/jwalitptl/compliance-api/pkg/messaging/rabbitmq"
	"github.com/jwalitptl/compliance-api/pkg/messaging/redis"
	"github.com/jwalitptl/compliance-api/pkg/metrics"
)

const metricsNamespace = "compliance"

// NewLogger builds the application logger and installs it as the zerolog
// global used by the HTTP middleware.
func NewLogger(cfg config.LogConfig) *logger.Logger {
	l := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Console:    cfg.Console,
	})
	log.Logger = *l.Zerolog()
	return l
}

// NewMetrics returns application metrics registered in a fresh registry that
// also carries the Go runtime and process collectors.
func NewMetrics() (*metrics.Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(metricsNamespace, reg), reg
}

func MetricsNamespace() string { return metricsNamespace }

// NewBroker connects the configured realtime transport.
func NewBroker(cfg *config.Config, l *logger.Logger) (messaging.Broker, error) {
	switch cfg.Broker.Driver {
	case "redis":
		return redis.NewRedisBroker(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, l.Zerolog())
	case "rabbitmq":
		return rabbitmq.NewBroker(rabbitmq.Config{
			URL:      cfg.Broker.URL,
			Exchange: cfg.Broker.Exchange,
		}, l.Zerolog())
	default:
		return messaging.NopBroker{}, nil
	}
}

// NewMailer builds the configured email transport behind a circuit breaker.
func NewMailer(ctx context.Context, cfg config.EmailConfig) (email.Sender, error) {
	var sender email.Sender
	switch cfg.Driver {
	case "smtp":
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.From,
		})
	case "ses":
		ses, err := email.NewSESSenderFromRegion(ctx, cfg.SESRegion, cfg.From)
		if err != nil {
			return nil, err
		}
		sender = ses
	default:
		return email.NopSender{}, nil
	}

	return email.NewBreakerSender(sender, circuitbreaker.Settings{
		Name:        "email-" + cfg.Driver,
		MaxFailures: cfg.MaxFailures,
		Timeout:     cfg.OpenTimeout,
	}), nil
}

// SystemParty is the sender of notifications no human triggered.
func SystemParty(cfg config.NotificationConfig) (model.NotificationParty, error) {
	id := uuid.Nil
	if cfg.SystemUserID != "" {
		parsed, err := uuid.Parse(cfg.SystemUserID)
		if err != nil {
			return model.NotificationParty{}, fmt.Errorf("invalid notification.system_user_id: %w", err)
		}
		id = parsed
	}
	return model.NotificationParty{
		UserID:   id,
		FullName: cfg.SystemName,
		Email:    cfg.SystemEmail,
		Roles:    []string{notification.RoleSystem},
	}, nil
}

// Core holds the stores and services both binaries use.
type Core struct {
	DB            *sqlx.DB
	Broker        messaging.Broker
	Projects      repository.ProjectRepository
	Questionnaire repository.QuestionnaireRepository
	Templates     *cache.TemplateRepository
	Audit         *audit.Service
	Notifications *notification.Service
	Registry      *strategy.Registry
	Seeder        *notification.Seeder
}

// NewCore connects the database, broker and mailer and wires the services.
// Close releases what it opened.
func NewCore(ctx context.Context, cfg *config.Config, l *logger.Logger, m *metrics.Metrics) (*Core, error) {
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}

	broker, err := NewBroker(cfg, l)
	if err != nil {
		db.Close()
		return nil, err
	}

	mailer, err := NewMailer(ctx, cfg.Email)
	if err != nil {
		broker.Close()
		db.Close()
		return nil, err
	}

	system, err := SystemParty(cfg.Notification)
	if err != nil {
		broker.Close()
		db.Close()
		return nil, err
	}

	base := postgres.NewBaseRepository(db, m)
	templates := cache.NewTemplateRepository(postgres.NewNotificationTemplateRepository(base), cfg.Notification.TemplateCacheTTL)
	projects := postgres.NewProjectRepository(base)

	auditSvc := audit.NewService(postgres.NewAuditRepository(base))
	notifications := notification.NewService(
		postgres.NewNotificationRepository(base),
		templates,
		mailer,
		broker,
		audit.NewAuditLogger(auditSvc, l),
		m,
		l,
	)

	return &Core{
		DB:            db,
		Broker:        broker,
		Projects:      projects,
		Questionnaire: postgres.NewQuestionnaireRepository(base),
		Templates:     templates,
		Audit:         auditSvc,
		Notifications: notifications,
		Registry:      strategy.NewRegistry(notifications, projects, system, l),
		Seeder:        notification.NewSeeder(templates, l),
	}, nil
}

func (c *Core) Close() {
	if err := c.Broker.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close broker")
	}
	if err := c.DB.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close database")
	}
}
