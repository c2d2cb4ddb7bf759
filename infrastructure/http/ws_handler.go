package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chat-desk/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The portal fronts this with its own origin policy.
		return true
	},
}

type WSHandler struct {
	log     *slog.Logger
	service services.IChatService
	cfg     WSConfig
}

func NewWSHandler(log *slog.Logger, service services.IChatService, cfg WSConfig) *WSHandler {
	return &WSHandler{log: log, service: service, cfg: cfg}
}

// Handle upgrades the request and registers the socket as the caller's
// live delivery target. Reconnecting supersedes the previous socket; a
// stale disconnect of the old socket cannot evict the new one.
func (h *WSHandler) Handle(c *gin.Context) {
	userID, ok := Identity(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "user", userID, "error", err)
		return
	}

	client := NewClient(userID, conn, h.log, h.cfg)
	h.service.JoinSession(userID, client)
	h.log.Info("live connection opened", "user", userID)

	go client.WritePump()
	go client.ReadPump(func() {
		h.service.LeaveSession(userID, client)
		h.log.Info("live connection closed", "user", userID)
	})
}
