// Package http is the externally callable surface: REST endpoints for
// message and notification CRUD plus the websocket join endpoint that
// turns a request into a live delivery target.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"chat-desk/contract"
	"chat-desk/services"
)

type RouterConfig struct {
	AuthSecret string
	PageSize   int
	WS         WSConfig
}

// NewRouter wires the handlers behind the identity middleware.
func NewRouter(log *slog.Logger, service services.IChatService, blobs contract.BlobStore, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	messages := NewMessageHandler(log, service, blobs, cfg.PageSize)
	notifications := NewNotificationHandler(log, service)
	ws := NewWSHandler(log, service, cfg.WS)

	authed := router.Group("/", RequireIdentity(cfg.AuthSecret))
	{
		authed.POST("/messages", messages.Send)
		authed.GET("/messages/unread", messages.UnreadCounts)
		authed.GET("/messages/search", messages.Search)
		// gin requires one wildcard name per position, so both the
		// conversation key and the message id bind as :key.
		authed.GET("/messages/:key", messages.History)
		authed.PUT("/messages/:key/read", messages.MarkRead)

		authed.GET("/notifications", notifications.List)
		authed.PUT("/notifications/acknowledge-all", notifications.AcknowledgeAll)
		authed.PUT("/notifications/:id/acknowledge", notifications.Acknowledge)

		authed.GET("/ws", ws.Handle)
	}

	return router
}
