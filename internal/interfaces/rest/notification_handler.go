package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sdmtech/sdmcrm/internal/domain/models"
	"github.com/sdmtech/sdmcrm/pkg/constants"
)

// NotificationService defines the notification inbox operations.
type NotificationService interface {
	List(ctx context.Context, recipientID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

// NotificationHandler handles /api/notifications
type NotificationHandler struct {
	svc NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// GetNotifications handles GET /api/notifications
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	HandleGetEnvelope(c, "notifications", func() (interface{}, error) {
		return h.svc.List(c.Request.Context(), GetPrincipal(c).UserID)
	})
}

// MarkAsRead handles POST /api/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	HandleDeleteEnvelope(c, "Notification marked as read", func() error {
		return h.svc.MarkRead(c.Request.Context(), GetPrincipal(c).UserID, c.Param("id"))
	})
}

// MarkAllAsRead handles POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(c.Request.Context(), GetPrincipal(c).UserID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Notifications marked as read", "updated": n})
}
