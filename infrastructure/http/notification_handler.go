package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cderrors "chat-desk/errors"
	"chat-desk/services"
)

type NotificationHandler struct {
	log     *slog.Logger
	service services.IChatService
}

func NewNotificationHandler(log *slog.Logger, service services.IChatService) *NotificationHandler {
	return &NotificationHandler{log: log, service: service}
}

// List returns the caller's outstanding notifications plus the count.
// Since acknowledge deletes, "unread" is simply "still present".
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": cderrors.ErrMissingIdentity.Error()})
		return
	}

	notifications, unread, err := h.service.Notifications(userID)
	if err != nil {
		h.log.Error("notification list failed", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "notifications unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "unreadCount": unread})
}

// Acknowledge removes one notification. Unknown ids succeed so that
// client retries stay harmless.
func (h *NotificationHandler) Acknowledge(c *gin.Context) {
	userID, ok := Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": cderrors.ErrMissingIdentity.Error()})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed notification id"})
		return
	}

	if err := h.service.AcknowledgeNotification(userID, id); err != nil {
		h.log.Error("acknowledge failed", "user", userID, "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "acknowledge failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": id})
}

// AcknowledgeAll clears the caller's whole set; an empty set succeeds.
func (h *NotificationHandler) AcknowledgeAll(c *gin.Context) {
	userID, ok := Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": cderrors.ErrMissingIdentity.Error()})
		return
	}

	if err := h.service.AcknowledgeAllNotifications(userID); err != nil {
		h.log.Error("acknowledge all failed", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "acknowledge failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
