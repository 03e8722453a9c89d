package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/compliance-api/pkg/logger"
)

// Job is one named unit of scheduled work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// DailyRunner fires a job once per calendar day at a wall-clock time.
type DailyRunner struct {
	job      Job
	at       string
	location *time.Location
	logger   *logger.Logger

	now      func() time.Time
	newTimer func(time.Duration) *time.Timer
}

// NewDailyRunner validates at ("HH:MM") up front so a bad schedule fails at
// startup rather than at the first tick.
func NewDailyRunner(job Job, at string, loc *time.Location, log *logger.Logger) (*DailyRunner, error) {
	if job.Run == nil {
		return nil, fmt.Errorf("job %q has no run function", job.Name)
	}
	if _, _, err := parseClock(at); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailyRunner{
		job:      job,
		at:       at,
		location: loc,
		logger:   log,
		now:      time.Now,
		newTimer: time.NewTimer,
	}, nil
}

func (r *DailyRunner) Start(ctx context.Context) {
	r.logger.Info("Starting daily job", "job", r.job.Name, "at", r.at, "location", r.location.String())

	for {
		now := r.now().In(r.location)
		next, err := NextRun(now, r.at)
		if err != nil {
			r.logger.Error(err, "Invalid daily schedule", "job", r.job.Name)
			return
		}

		timer := r.newTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("Shutting down daily job", "job", r.job.Name)
			return
		case <-timer.C:
			// Failures are logged by RunOnce; the next day's run still happens.
			_ = r.RunOnce(ctx)
		}
	}
}

// RunOnce executes the job immediately and logs its outcome.
func (r *DailyRunner) RunOnce(ctx context.Context) error {
	start := time.Now()
	if err := r.job.Run(ctx); err != nil {
		r.logger.Error(err, "Daily job failed", "job", r.job.Name)
		return err
	}
	r.logger.Info("Daily job completed", "job", r.job.Name, "duration", time.Since(start).String())
	return nil
}

// NextRun returns the first instant strictly after now at which the wall
// clock in now's location reads at.
func NextRun(now time.Time, at string) (time.Time, error) {
	hour, minute, err := parseClock(at)
	if err != nil {
		return time.Time{}, err
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next, nil
}

func parseClock(at string) (int, int, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q, expected HH:MM: %w", at, err)
	}
	return t.Hour(), t.Minute(), nil
}
