package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository/mocks"
	"github.com/jwalitptl/compliance-api/pkg/logger"
	"github.com/jwalitptl/compliance-api/pkg/metrics"
)

type panickingUpdater struct {
	inner   Updater
	panicOn int64
}

func (u panickingUpdater) UpdateProjectTimeline(p *model.Project) error {
	if p.ID == u.panicOn {
		panic("corrupt project")
	}
	return u.inner.UpdateProjectTimeline(p)
}

func threeProjects() []*model.Project {
	return []*model.Project{
		{ID: 1, Timeline: model.Timeline{ApplicationStartDate: day(2024, 6, 1)}},
		{ID: 2, Timeline: model.Timeline{ApplicationStartDate: day(2024, 6, 1)}},
		{ID: 3, Timeline: model.Timeline{ApplicationStartDate: day(2024, 7, 1)}},
	}
}

func byID(id int64) interface{} {
	return mock.MatchedBy(func(p *model.Project) bool { return p.ID == id })
}

func TestRefreshService_Run(t *testing.T) {
	repo := new(mocks.ProjectRepository)
	projects := threeProjects()
	repo.On("FindAllOrderByIDAsc", mock.Anything).Return(projects, nil)
	repo.On("SaveTimeline", mock.Anything, mock.Anything).Return(nil)

	svc := NewRefreshService(repo, policyAt(2024, 6, 15, 12, time.UTC), logger.NewNop(), metrics.NewNop())
	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RefreshResult{Processed: 3}, result)
	assert.Equal(t, model.TimelineStatusInProgress, projects[0].TimelineStatus)
	assert.Equal(t, model.TimelineStatusPending, projects[2].TimelineStatus)
	repo.AssertNumberOfCalls(t, "SaveTimeline", 3)
}

func TestRefreshService_SaveFailureDoesNotStopBatch(t *testing.T) {
	repo := new(mocks.ProjectRepository)
	repo.On("FindAllOrderByIDAsc", mock.Anything).Return(threeProjects(), nil)
	repo.On("SaveTimeline", mock.Anything, byID(1)).Return(nil).Once()
	repo.On("SaveTimeline", mock.Anything, byID(2)).Return(errors.New("deadlock")).Once()
	repo.On("SaveTimeline", mock.Anything, byID(3)).Return(nil).Once()

	svc := NewRefreshService(repo, policyAt(2024, 6, 15, 12, time.UTC), logger.NewNop(), metrics.NewNop())
	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RefreshResult{Processed: 2, Failed: 1}, result)
	repo.AssertExpectations(t)
}

func TestRefreshService_PanicDoesNotStopBatch(t *testing.T) {
	repo := new(mocks.ProjectRepository)
	repo.On("FindAllOrderByIDAsc", mock.Anything).Return(threeProjects(), nil)
	repo.On("SaveTimeline", mock.Anything, byID(1)).Return(nil).Once()
	repo.On("SaveTimeline", mock.Anything, byID(3)).Return(nil).Once()

	updater := panickingUpdater{inner: policyAt(2024, 6, 15, 12, time.UTC), panicOn: 2}
	svc := NewRefreshService(repo, updater, logger.NewNop(), metrics.NewNop())
	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RefreshResult{Processed: 2, Failed: 1}, result)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "SaveTimeline", mock.Anything, byID(2))
}

func TestRefreshService_NilProjectIsCountedAsFailure(t *testing.T) {
	repo := new(mocks.ProjectRepository)
	repo.On("FindAllOrderByIDAsc", mock.Anything).Return([]*model.Project{nil, {ID: 5}}, nil)
	repo.On("SaveTimeline", mock.Anything, byID(5)).Return(nil).Once()

	svc := NewRefreshService(repo, policyAt(2024, 6, 15, 12, time.UTC), logger.NewNop(), metrics.NewNop())
	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, RefreshResult{Processed: 1, Failed: 1}, result)
}

func TestRefreshService_LoadFailureAborts(t *testing.T) {
	repo := new(mocks.ProjectRepository)
	loadErr := errors.New("connection refused")
	repo.On("FindAllOrderByIDAsc", mock.Anything).Return(nil, loadErr)

	svc := NewRefreshService(repo, NewPolicy(nil), logger.NewNop(), metrics.NewNop())
	_, err := svc.Run(context.Background())

	assert.ErrorIs(t, err, loadErr)
	repo.AssertNotCalled(t, "SaveTimeline", mock.Anything, mock.Anything)
}
