package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
)

func TestTemplateRepository_FindByKey(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationTemplateRepository(base)

	mock.ExpectQuery(`SELECT key, who_can_send, recipients, title, body, channels FROM notification_templates WHERE key = \$1`).
		WithArgs("QUESTIONNAIRE_REMINDER").
		WillReturnRows(sqlmock.NewRows([]string{"key", "who_can_send", "recipients", "title", "body", "channels"}).
			AddRow("QUESTIONNAIRE_REMINDER", []byte("{ADMIN,SYSTEM}"), []byte("{REPRESENTANTE}"),
				"Pendência: {questionnaireName}", "Projeto {projectName}", []byte("{INTERNAL,EMAIL}")))

	tmpl, err := repo.FindByKey(context.Background(), "QUESTIONNAIRE_REMINDER")
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN", "SYSTEM"}, tmpl.WhoCanSend)
	assert.Equal(t, []string{"REPRESENTANTE"}, tmpl.Recipients)
	assert.Equal(t, []model.Channel{model.ChannelInternal, model.ChannelEmail}, tmpl.Channels)
	assert.True(t, tmpl.HasChannel(model.ChannelEmail))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepository_FindByKeyNotFound(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationTemplateRepository(base)

	mock.ExpectQuery(`FROM notification_templates`).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByKey(context.Background(), "MISSING")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTemplateRepository_CreateIfAbsent(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationTemplateRepository(base)

	tmpl := &model.NotificationTemplate{
		Key:      "NOTIFICATION_DEFAULT",
		Title:    "{title}",
		Body:     "{message}",
		Channels: []model.Channel{model.ChannelInternal},
	}

	mock.ExpectExec(`INSERT INTO notification_templates (.+) ON CONFLICT \(key\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	inserted, err := repo.CreateIfAbsent(context.Background(), tmpl)
	require.NoError(t, err)
	assert.True(t, inserted)

	mock.ExpectExec(`INSERT INTO notification_templates (.+) ON CONFLICT \(key\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	inserted, err = repo.CreateIfAbsent(context.Background(), tmpl)
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.NoError(t, mock.ExpectationsWereMet())
}
