package model

import (
	"time"

	"github.com/google/uuid"
)

// TimelineStatus is derived from the current date and an application date range.
type TimelineStatus string

const (
	TimelineStatusPending    TimelineStatus = "PENDENTE"
	TimelineStatusInProgress TimelineStatus = "EM_ANDAMENTO"
	TimelineStatusCompleted  TimelineStatus = "CONCLUIDO"
)

// Timeline is embedded by every entity whose status the timeline policy owns.
type Timeline struct {
	ApplicationStartDate *time.Time     `json:"applicationStartDate" db:"application_start_date"`
	ApplicationEndDate   *time.Time     `json:"applicationEndDate" db:"application_end_date"`
	TimelineStatus       TimelineStatus `json:"timelineStatus" db:"timeline_status"`
}

type Project struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Timeline
	Stages     []*Stage     `json:"stages" db:"-"`
	Iterations []*Iteration `json:"iterations" db:"-"`
}

type Stage struct {
	ID        int64  `json:"id" db:"id"`
	ProjectID int64  `json:"projectId" db:"project_id"`
	Name      string `json:"name" db:"name"`
	Timeline
}

type Iteration struct {
	ID        int64  `json:"id" db:"id"`
	ProjectID int64  `json:"projectId" db:"project_id"`
	Name      string `json:"name" db:"name"`
	Timeline
}

type Questionnaire struct {
	ID                   int64      `json:"id" db:"id"`
	ProjectID            int64      `json:"projectId" db:"project_id"`
	ProjectName          string     `json:"projectName" db:"project_name"`
	Name                 string     `json:"name" db:"name"`
	ApplicationStartDate time.Time  `json:"applicationStartDate" db:"application_start_date"`
	ApplicationEndDate   *time.Time `json:"applicationEndDate" db:"application_end_date"`
}

// Representative is a user answering questionnaires on behalf of a project.
type Representative struct {
	UserID   uuid.UUID `db:"user_id"`
	FullName string    `db:"full_name"`
	Email    string    `db:"email"`
	Roles    []string  `db:"-"`
}

func (r Representative) Party() NotificationParty {
	return NotificationParty{
		UserID:   r.UserID,
		FullName: r.FullName,
		Email:    r.Email,
		Roles:    r.Roles,
	}
}
