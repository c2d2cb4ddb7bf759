package http

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-desk/contract"
	"chat-desk/domain"
	cderrors "chat-desk/errors"
	"chat-desk/services"
)

type MessageHandler struct {
	log      *slog.Logger
	service  services.IChatService
	blobs    contract.BlobStore
	pageSize int
}

func NewMessageHandler(log *slog.Logger, service services.IChatService, blobs contract.BlobStore, pageSize int) *MessageHandler {
	return &MessageHandler{log: log, service: service, blobs: blobs, pageSize: pageSize}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId" form:"receiverId"`
	Body       string `json:"body" form:"body"`
}

// Send accepts JSON for text-only messages or multipart with an optional
// "file" part. The sender is always the authenticated caller.
func (h *MessageHandler) Send(c *gin.Context) {
	senderID, ok := Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": cderrors.ErrMissingIdentity.Error()})
		return
	}

	var req sendMessageRequest
	var attachment *domain.Attachment

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		file, err := c.FormFile("file")
		if err == nil {
			attachment, err = h.storeAttachment(c, file)
			if err != nil {
				h.log.Error("attachment upload failed", "sender", senderID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "attachment upload failed"})
				return
			}
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	msg, err := h.service.SendMessage(c.Request.Context(), contract.SendMessage{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Body:       req.Body,
		Attachment: attachment,
	})
	if err != nil {
		if errors.Is(err, cderrors.ErrInvalidMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("send failed", "sender", senderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "message not persisted"})
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) storeAttachment(c *gin.Context, file *multipart.FileHeader) (*domain.Attachment, error) {
	probe, err := file.Open()
	if err != nil {
		return nil, err
	}
	mime, err := mimetype.DetectReader(probe)
	_ = probe.Close()
	if err != nil {
		return nil, err
	}

	blob, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	path, err := h.blobs.Save(c.Request.Context(), file.Filename, blob)
	if err != nil {
		return nil, err
	}
	return &domain.Attachment{
		Filename:    file.Filename,
		StoragePath: path,
		Category:    domain.CategoryFromMIME(mime.String()),
	}, nil
}

// History returns one chronological page of the conversation. The caller
// must be one of the two participants.
func (h *MessageHandler) History(c *gin.Context) {
	key, ok := h.conversationForCaller(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	history, err := h.service.FetchHistory(key, page, h.pageSize)
	if err != nil {
		h.log.Error("history fetch failed", "conversation", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, history)
}

// Search applies the optional AND-combined filters over one conversation.
func (h *MessageHandler) Search(c *gin.Context) {
	key, ok := h.conversationForCaller(c)
	if !ok {
		return
	}

	q := contract.SearchQuery{
		Conversation: key,
		Keyword:      c.Query("keyword"),
		Category:     domain.AttachmentCategory(c.Query("attachmentCategory")),
		SortBy:       c.DefaultQuery("sortBy", "date"),
		Ascending:    c.Query("sortOrder") == "asc",
	}

	var err error
	if raw := c.Query("startDate"); raw != "" {
		if q.From, err = parseDate(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "startDate: " + err.Error()})
			return
		}
	}
	if raw := c.Query("endDate"); raw != "" {
		if q.To, err = parseDate(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "endDate: " + err.Error()})
			return
		}
	}

	messages, err := h.service.SearchHistory(c.Request.Context(), q)
	if err != nil {
		h.log.Error("search failed", "conversation", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// MarkRead flips the read flag; repeating the call is a no-op success.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed message id"})
		return
	}

	msg, err := h.service.MarkMessageRead(id)
	if err != nil {
		if errors.Is(err, cderrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		h.log.Error("mark read failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mark read failed"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

// UnreadCounts returns the caller's per-contact unread badge numbers.
func (h *MessageHandler) UnreadCounts(c *gin.Context) {
	userID, ok := Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": cderrors.ErrMissingIdentity.Error()})
		return
	}

	counts, err := h.service.UnreadBySender(userID)
	if err != nil {
		h.log.Error("unread count failed", "user", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unread counts unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": counts})
}

// conversationForCaller parses the key and rejects callers that are not
// one of the two participants.
func (h *MessageHandler) conversationForCaller(c *gin.Context) (domain.ConversationKey, bool) {
	userID, ok := Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": cderrors.ErrMissingIdentity.Error()})
		return "", false
	}

	raw := c.Param("key")
	if raw == "" {
		raw = c.Query("conversationKey")
	}
	key, err := domain.ParseConversationKey(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}

	a, b := key.Participants()
	if userID != a && userID != b {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this conversation"})
		return "", false
	}
	return key, true
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
