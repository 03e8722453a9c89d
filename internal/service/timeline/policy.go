// Package timeline derives the lifecycle status of projects, stages and
// iterations from their application date range.
package timeline

import (
	"errors"
	"time"

	"github.com/jwalitptl/compliance-api/internal/model"
)

var ErrNilProject = errors.New("project is nil")

type Policy struct {
	clock Clock
}

func NewPolicy(clock Clock) *Policy {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Policy{clock: clock}
}

// Today is the current calendar date in the clock's location.
func (p *Policy) Today() time.Time {
	now := p.clock.Now()
	return dateOf(now, now.Location())
}

// StatusFor compares calendar dates only. Both bounds are inclusive.
func (p *Policy) StatusFor(start, end *time.Time) model.TimelineStatus {
	if start == nil {
		return model.TimelineStatusPending
	}
	now := p.clock.Now()
	loc := now.Location()
	today := dateOf(now, loc)

	if today.Before(dateOf(*start, loc)) {
		return model.TimelineStatusPending
	}
	if end != nil && today.After(dateOf(*end, loc)) {
		return model.TimelineStatusCompleted
	}
	return model.TimelineStatusInProgress
}

// UpdateProjectTimeline recomputes the project and each of its stages and
// iterations from their own bounds. Bounds of children are not required to
// nest inside the project's.
func (p *Policy) UpdateProjectTimeline(project *model.Project) error {
	if project == nil {
		return ErrNilProject
	}
	p.apply(&project.Timeline)
	for _, stage := range project.Stages {
		if stage != nil {
			p.apply(&stage.Timeline)
		}
	}
	for _, iteration := range project.Iterations {
		if iteration != nil {
			p.apply(&iteration.Timeline)
		}
	}
	return nil
}

func (p *Policy) apply(t *model.Timeline) {
	t.TimelineStatus = p.StatusFor(t.ApplicationStartDate, t.ApplicationEndDate)
}

// dateOf truncates t to midnight of its calendar date as seen in loc. Values
// at a zero offset are stored calendar dates and keep their day: lib/pq scans
// DATE columns into an unnamed +0000 zone, not time.UTC.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	if _, offset := t.Zone(); offset != 0 {
		y, m, d = t.In(loc).Date()
	}
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
