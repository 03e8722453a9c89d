package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/repository"
	"github.com/jwalitptl/compliance-api/pkg/logger"
	"github.com/jwalitptl/compliance-api/pkg/metrics"
)

const JobName = "timeline_refresh"

// Updater recomputes the timeline of one project in place.
type Updater interface {
	UpdateProjectTimeline(project *model.Project) error
}

type RefreshResult struct {
	Processed int
	Failed    int
}

// RefreshService walks every project once and persists its recomputed timeline.
type RefreshService struct {
	projects repository.ProjectRepository
	policy   Updater
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewRefreshService(projects repository.ProjectRepository, policy Updater, log *logger.Logger, m *metrics.Metrics) *RefreshService {
	return &RefreshService{
		projects: projects,
		policy:   policy,
		logger:   log,
		metrics:  m,
	}
}

// Run processes projects in id order. A failing project is logged and
// counted; only a failure to load the projects aborts the run.
func (s *RefreshService) Run(ctx context.Context) (RefreshResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.JobDuration.WithLabelValues(JobName).Observe(time.Since(start).Seconds())
	}()

	var result RefreshResult
	projects, err := s.projects.FindAllOrderByIDAsc(ctx)
	if err != nil {
		s.metrics.JobRuns.WithLabelValues(JobName, "error").Inc()
		return result, fmt.Errorf("failed to load projects: %w", err)
	}

	for _, project := range projects {
		if err := s.refreshOne(ctx, project); err != nil {
			result.Failed++
			s.metrics.JobItems.WithLabelValues(JobName, "failed").Inc()
			s.logger.Error(err, "Failed to refresh project timeline", "project_id", projectID(project))
			continue
		}
		result.Processed++
		s.metrics.JobItems.WithLabelValues(JobName, "processed").Inc()
	}

	s.metrics.JobRuns.WithLabelValues(JobName, "success").Inc()
	s.logger.Info("Timeline refresh finished",
		"projects", len(projects),
		"processed", result.Processed,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *RefreshService) refreshOne(ctx context.Context, project *model.Project) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while refreshing project: %v", r)
		}
	}()

	if err := s.policy.UpdateProjectTimeline(project); err != nil {
		return err
	}
	if err := s.projects.SaveTimeline(ctx, project); err != nil {
		return fmt.Errorf("failed to save timeline: %w", err)
	}
	return nil
}

func projectID(p *model.Project) int64 {
	if p == nil {
		return 0
	}
	return p.ID
}
