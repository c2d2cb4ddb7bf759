package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a short-lived activity marker, decoupled from message
// bodies so that non-chat producers (form assignment, finance entries)
// can raise one too. It lives until the target acknowledges it.
type Notification struct {
	ID        uuid.UUID         `json:"id"`
	TargetID  string            `json:"target_id"`
	OriginID  *string           `json:"origin_id,omitempty"` // nil for system notices
	Title     string            `json:"title"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
