package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AttachmentCategory is the declared kind of an attachment, derived from
// its detected MIME type at upload time.
type AttachmentCategory string

const (
	CategoryImage    AttachmentCategory = "image"
	CategoryAudio    AttachmentCategory = "audio"
	CategoryVideo    AttachmentCategory = "video"
	CategoryDocument AttachmentCategory = "document"
	CategoryOther    AttachmentCategory = "other"
)

// CategoryFromMIME maps a detected MIME type to a coarse category.
// Anything that is not media is treated as a document, except unknown
// binary blobs which fall back to "other".
func CategoryFromMIME(mime string) AttachmentCategory {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return CategoryImage
	case strings.HasPrefix(mime, "audio/"):
		return CategoryAudio
	case strings.HasPrefix(mime, "video/"):
		return CategoryVideo
	case mime == "application/octet-stream" || mime == "":
		return CategoryOther
	default:
		return CategoryDocument
	}
}

// Attachment references a blob held by the external file store.
// The subsystem never reads the blob back, it only carries the reference.
type Attachment struct {
	Filename    string             `json:"filename"`
	StoragePath string             `json:"storage_path"`
	Category    AttachmentCategory `json:"category"`
}

// Message is one chat message between two participants.
// A message carries a body, an attachment, or both. Never neither.
type Message struct {
	ID         uuid.UUID   `json:"id"`
	SenderID   string      `json:"sender_id"`
	ReceiverID string      `json:"receiver_id"`
	Body       string      `json:"body,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Read       bool        `json:"read"`
	CreatedAt  time.Time   `json:"created_at"`

	// Seq is the store-assigned monotonic insertion number. It breaks
	// ordering ties between messages created in the same nanosecond.
	Seq uint64 `json:"seq"`
}

// Conversation returns the canonical key of the conversation this
// message belongs to.
func (m Message) Conversation() ConversationKey {
	return NewConversationKey(m.SenderID, m.ReceiverID)
}
