package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository/mocks"
	"github.com/jwalitptl/compliance-api/pkg/logger"
)

func TestDefaultTemplates_OnePerType(t *testing.T) {
	templates := DefaultTemplates()
	require.Len(t, templates, len(model.NotificationTypes))

	keys := map[string]bool{}
	for _, tmpl := range templates {
		assert.False(t, keys[tmpl.Key], "duplicate key %s", tmpl.Key)
		keys[tmpl.Key] = true
		assert.NotEmpty(t, tmpl.Channels, tmpl.Key)
	}
	for _, nt := range model.NotificationTypes {
		assert.True(t, keys[nt.TemplateKey()], "missing template for %s", nt)
	}
}

func TestDefaultTemplates_SystemMaySendReminder(t *testing.T) {
	for _, tmpl := range DefaultTemplates() {
		if tmpl.Key == model.NotificationTypeQuestionnaireReminder.TemplateKey() {
			assert.NoError(t, ValidateCanSend(tmpl.WhoCanSend, RoleSystem, nil))
			return
		}
	}
	t.Fatal("reminder template missing")
}

func TestSeeder_InsertsOnlyMissing(t *testing.T) {
	repo := new(mocks.NotificationTemplateRepository)
	reminderKey := model.NotificationTypeQuestionnaireReminder.TemplateKey()

	repo.On("CreateIfAbsent", mock.Anything, mock.MatchedBy(func(tmpl *model.NotificationTemplate) bool {
		return tmpl.Key == reminderKey
	})).Return(false, nil).Once()
	repo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(true, nil)

	result, err := NewSeeder(repo, logger.NewNop()).Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(model.NotificationTypes)-1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	repo.AssertNumberOfCalls(t, "CreateIfAbsent", len(model.NotificationTypes))
}

func TestSeeder_StopsOnError(t *testing.T) {
	repo := new(mocks.NotificationTemplateRepository)
	repo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(false, errors.New("db down")).Once()

	_, err := NewSeeder(repo, logger.NewNop()).Seed(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to seed template")
	repo.AssertNumberOfCalls(t, "CreateIfAbsent", 1)
}
