package notification

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/compliance-api/internal/middleware"
	"github.com/jwalitptl/compliance-api/internal/model"
	"github.com/jwalitptl/compliance-api/internal/service/notification/strategy"
	apperrors "github.com/jwalitptl/compliance-api/pkg/errors"
	"github.com/jwalitptl/compliance-api/pkg/httputil"
)

// Inbox is the recipient-facing side of the notification service.
type Inbox interface {
	Get(ctx context.Context, id, actorID uuid.UUID) (*model.Notification, error)
	ListForRecipient(ctx context.Context, userID uuid.UUID, page model.Pagination) (*model.Page[*model.Notification], error)
	UpdateStatus(ctx context.Context, id, actorID uuid.UUID, status model.NotificationStatus) (*model.Notification, error)
}

// Dispatcher sends a notification type through its registered strategy.
type Dispatcher interface {
	Supports(t model.NotificationType) bool
	Send(ctx context.Context, t model.NotificationType, bag strategy.Context) ([]*model.Notification, error)
}

type Handler struct {
	inbox      Inbox
	dispatcher Dispatcher
}

func NewHandler(inbox Inbox, dispatcher Dispatcher) *Handler {
	return &Handler{
		inbox:      inbox,
		dispatcher: dispatcher,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.POST("/send", h.Send)
		notifications.GET("/:id", h.Get)
		notifications.PATCH("/:id/status", h.UpdateStatus)
	}
}

type updateStatusRequest struct {
	Status model.NotificationStatus `json:"status" binding:"required"`
}

type sendRequest struct {
	Type    model.NotificationType `json:"type" binding:"required"`
	Context map[string]interface{} `json:"context"`
}

func (h *Handler) List(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		c.Error(err)
		return
	}

	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.Error(apperrors.BadRequest("invalid pagination", err))
		return
	}

	result, err := h.inbox.ListForRecipient(c.Request.Context(), actor.UserID, page)
	if err != nil {
		c.Error(err)
		return
	}

	httputil.RespondWithPagination(c, result.Items, result.Page, result.PageSize, result.Total)
}

func (h *Handler) Get(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		c.Error(err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid notification ID", err))
		return
	}

	n, err := h.inbox.Get(c.Request.Context(), id, actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, n)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		c.Error(err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid notification ID", err))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}

	n, err := h.inbox.UpdateStatus(c.Request.Context(), id, actor.UserID, req.Status)
	if err != nil {
		c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, n)
}

// Send dispatches a notification type on behalf of the caller. The caller is
// always the sender; a sender in the body is ignored.
func (h *Handler) Send(c *gin.Context) {
	actor, err := middleware.ActorFrom(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("invalid request body", err))
		return
	}
	if !h.dispatcher.Supports(req.Type) {
		c.Error(apperrors.BadRequest("unsupported notification type", strategy.ErrUnsupportedNotificationType))
		return
	}

	bag := strategy.Context{}
	for k, v := range req.Context {
		bag[k] = v
	}
	bag[strategy.KeySender] = actor.Party()
	bag[strategy.KeySenderRole] = actor.Role

	sent, err := h.dispatcher.Send(c.Request.Context(), req.Type, bag)
	if err != nil {
		c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, sent)
}
