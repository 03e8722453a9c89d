package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/compliance-api/internal/middleware"
	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/service/notification"
	apperrors "github.com/jwalitptl/compliance-api/pkg/errors"
	"github.com/jwalitptl/compliance-api/pkg/httputil"
)

// exportLimit caps the rows of one CSV export.
const exportLimit = 5000

type Trail interface {
	List(ctx context.Context, filter model.AuditFilter, page model.Pagination) (*model.Page[*model.AuditLog], error)
}

type Handler struct {
	trail Trail
}

func NewHandler(trail Trail) *Handler {
	return &Handler{trail: trail}
}

// RegisterRoutes mounts the audit trail. Only administrators may read it.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	audit := r.Group("/audit", middleware.RequireRole(notification.RoleAdmin))
	{
		audit.GET("/logs", h.ListLogs)
		audit.GET("/export", h.ExportLogs)
	}
}

type filterQuery struct {
	model.AuditFilter
	ActorID string `form:"actor_id"`
}

func bindFilter(c *gin.Context) (model.AuditFilter, error) {
	var q filterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return model.AuditFilter{}, apperrors.BadRequest("invalid audit query", err)
	}
	if q.ActorID != "" {
		id, err := uuid.Parse(q.ActorID)
		if err != nil {
			return model.AuditFilter{}, apperrors.BadRequest("invalid actor_id", err)
		}
		q.AuditFilter.ActorID = id
	}
	return q.AuditFilter, nil
}

func (h *Handler) ListLogs(c *gin.Context) {
	filter, err := bindFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.Error(apperrors.BadRequest("invalid pagination", err))
		return
	}

	logs, err := h.trail.List(c.Request.Context(), filter, page)
	if err != nil {
		c.Error(err)
		return
	}

	httputil.RespondWithPagination(c, logs.Items, logs.Page, logs.PageSize, logs.Total)
}

// ExportLogs writes the filtered trail as CSV, newest first.
func (h *Handler) ExportLogs(c *gin.Context) {
	filter, err := bindFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	var rows []*model.AuditLog
	for page := 1; len(rows) < exportLimit; page++ {
		logs, err := h.trail.List(c.Request.Context(), filter, model.Pagination{Page: page, PageSize: model.MaxPageSize})
		if err != nil {
			c.Error(err)
			return
		}
		rows = append(rows, logs.Items...)
		if len(logs.Items) == 0 || int64(len(rows)) >= logs.Total {
			break
		}
	}
	if len(rows) > exportLimit {
		rows = rows[:exportLimit]
	}

	filename := fmt.Sprintf("audit_logs_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write([]string{"ID", "Actor ID", "Action", "Entity Type", "Entity ID", "Created At"})
	for _, log := range rows {
		_ = writer.Write([]string{
			log.ID.String(),
			log.ActorID.String(),
			log.Action,
			log.EntityType,
			log.EntityID,
			log.CreatedAt.Format(time.RFC3339),
		})
	}
	writer.Flush()
}
