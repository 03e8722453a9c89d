package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records who did what to which entity. EntityID is textual because
// notifications are keyed by UUID while projects use numeric ids.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ActorID    uuid.UUID       `json:"actor_id" db:"actor_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes" db:"changes"`
	Metadata   json.RawMessage `json:"metadata" db:"metadata"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate       = "create"
	AuditActionStatusUpdate = "status_update"
	AuditActionRefresh      = "refresh"

	// Entity types
	AuditEntityNotification = "notification"
	AuditEntityProject      = "project"
)

// AuditFilter narrows an audit trail query. Zero values match everything.
type AuditFilter struct {
	ActorID    uuid.UUID  `form:"-"`
	EntityType string     `form:"entity_type"`
	EntityID   string     `form:"entity_id"`
	Action     string     `form:"action"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
}
