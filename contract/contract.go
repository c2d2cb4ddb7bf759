//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"chat-desk/domain"
	"chat-desk/domain/event"
)

// EventSink is one client's live connection as seen by the delivery side.
// Push must not block: an implementation with a full outbound buffer
// returns an error instead of stalling the caller.
type EventSink interface {
	Push(evt event.DomainEvent) error
}

// Registry tracks which user identities currently have a live connection.
// At most one sink per identity; a later Register silently supersedes the
// earlier sink. Operations never fail the caller.
type Registry interface {
	Register(userID string, sink EventSink)
	Unregister(userID string, sink EventSink)
	Lookup(userID string) (EventSink, bool)
}

// Dispatcher bridges persistence and live delivery. Delivery is
// fire-and-forget: the persisted record is the only guaranteed residue.
type Dispatcher interface {
	Deliver(targetID string, evt event.DomainEvent)
}

// SendMessage is the validated input of MessageStore.Store.
// The colon is reserved as the storage key separator, so ids that
// contain one are rejected outright.
type SendMessage struct {
	SenderID   string `validate:"required,excludesall=:"`
	ReceiverID string `validate:"required,excludesall=:"`
	Body       string
	Attachment *domain.Attachment
}

// SearchQuery carries the optional, AND-combined search filters.
// A zero filter matches everything for that dimension.
type SearchQuery struct {
	Conversation domain.ConversationKey
	Keyword      string
	From         time.Time
	To           time.Time
	Category     domain.AttachmentCategory
	SortBy       string // "date" (default) or "relevance"
	Ascending    bool
}

// MessageStore is the durable record of chat content.
type MessageStore interface {
	Store(ctx context.Context, cmd SendMessage) (domain.Message, error)
	ListByConversation(key domain.ConversationKey, page, pageSize int) ([]domain.Message, int, error)
	Search(ctx context.Context, q SearchQuery) ([]domain.Message, error)
	MarkRead(id uuid.UUID) (domain.Message, error)
	CountUnreadBySender(receiverID string) (map[string]int, error)
}

// NotificationStore holds delete-on-acknowledge activity markers.
type NotificationStore interface {
	Create(targetID, title, text string, originID *string, metadata map[string]string) (domain.Notification, error)
	ListForUser(targetID string) ([]domain.Notification, int, error)
	Acknowledge(id uuid.UUID) error
	AcknowledgeAll(targetID string) error
}

// BlobStore is the external content-addressed file storage collaborator.
// This subsystem only stores blobs on upload and carries the reference.
type BlobStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// AuditSink is the external write-only audit side-channel.
type AuditSink interface {
	Record(ctx context.Context, actorID, action, subject string)
}

// Worker is a long-running background job run under the supervisor.
// Run blocks until the context is canceled or the job is done; a nil
// return means finished for good, an error means restart.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}
