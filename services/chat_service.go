//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-desk/contract"
	"chat-desk/domain"
	"chat-desk/domain/event"
	"chat-desk/runtime"
)

// IChatService is the externally callable surface of the delivery
// subsystem. REST and websocket handlers talk to this and nothing below.
type IChatService interface {
	SendMessage(ctx context.Context, cmd contract.SendMessage) (domain.Message, error)
	FetchHistory(key domain.ConversationKey, page, pageSize int) (History, error)
	SearchHistory(ctx context.Context, q contract.SearchQuery) ([]domain.Message, error)
	MarkMessageRead(id uuid.UUID) (domain.Message, error)
	UnreadBySender(receiverID string) (map[string]int, error)
	Notifications(targetID string) ([]domain.Notification, int, error)
	AcknowledgeNotification(targetID string, id uuid.UUID) error
	AcknowledgeAllNotifications(targetID string) error
	JoinSession(userID string, sink contract.EventSink)
	LeaveSession(userID string, sink contract.EventSink)
}

// History is one chronological page of a conversation.
type History struct {
	Messages    []domain.Message `json:"messages"`
	CurrentPage int              `json:"current_page"`
	TotalPages  int              `json:"total_pages"`
}

// ChatService composes the stores, the registry and the dispatcher.
// The persist-then-best-effort-push order is enforced here: durability
// never depends on a live recipient.
type ChatService struct {
	log           *slog.Logger
	messages      contract.MessageStore
	notifications contract.NotificationStore
	dispatcher    contract.Dispatcher
	registry      contract.Registry
	throttle      *runtime.Throttle
	audit         contract.AuditSink
}

func NewChatService(
	log *slog.Logger,
	messages contract.MessageStore,
	notifications contract.NotificationStore,
	dispatcher contract.Dispatcher,
	registry contract.Registry,
	throttle *runtime.Throttle,
	audit contract.AuditSink,
) *ChatService {
	return &ChatService{
		log:           log,
		messages:      messages,
		notifications: notifications,
		dispatcher:    dispatcher,
		registry:      registry,
		throttle:      throttle,
		audit:         audit,
	}
}

// SendMessage persists the message, records a derivative notification for
// the receiver, then pushes to the receiver's live connection if any.
// Only the persistence step can fail the caller.
func (s *ChatService) SendMessage(ctx context.Context, cmd contract.SendMessage) (domain.Message, error) {
	msg, err := s.messages.Store(ctx, cmd)
	if err != nil {
		return domain.Message{}, err
	}
	s.audit.Record(ctx, cmd.SenderID, "message.send", msg.ID.String())

	if s.throttle.Allow(pairKey(cmd.SenderID, cmd.ReceiverID)) {
		text := fmt.Sprintf("New message from %s", cmd.SenderID)
		notification, err := s.notifications.Create(cmd.ReceiverID, "New message", text, &cmd.SenderID, nil)
		if err != nil {
			// The message is already durable; a failed activity marker
			// must not turn the send into a failure.
			s.log.Error("notification not recorded", "receiver", cmd.ReceiverID, "error", err)
		} else {
			s.dispatcher.Deliver(cmd.ReceiverID, event.New(event.NewNotification, notification))
		}
	}

	s.dispatcher.Deliver(cmd.ReceiverID, event.New(event.NewMessage, msg))
	return msg, nil
}

// FetchHistory returns one page in chronological order. The store keeps
// messages newest-first; presentation order is this façade's job.
func (s *ChatService) FetchHistory(key domain.ConversationKey, page, pageSize int) (History, error) {
	messages, totalPages, err := s.messages.ListByConversation(key, page, pageSize)
	if err != nil {
		return History{}, err
	}
	return History{
		Messages:    lo.Reverse(messages),
		CurrentPage: page,
		TotalPages:  totalPages,
	}, nil
}

func (s *ChatService) SearchHistory(ctx context.Context, q contract.SearchQuery) ([]domain.Message, error) {
	return s.messages.Search(ctx, q)
}

func (s *ChatService) MarkMessageRead(id uuid.UUID) (domain.Message, error) {
	return s.messages.MarkRead(id)
}

func (s *ChatService) UnreadBySender(receiverID string) (map[string]int, error) {
	return s.messages.CountUnreadBySender(receiverID)
}

func (s *ChatService) Notifications(targetID string) ([]domain.Notification, int, error) {
	return s.notifications.ListForUser(targetID)
}

// AcknowledgeNotification deletes the record and tells the target's other
// live view, if any, that the badge count changed.
func (s *ChatService) AcknowledgeNotification(targetID string, id uuid.UUID) error {
	if err := s.notifications.Acknowledge(id); err != nil {
		return err
	}
	s.dispatcher.Deliver(targetID, event.New(event.NotificationRead, id))
	return nil
}

func (s *ChatService) AcknowledgeAllNotifications(targetID string) error {
	if err := s.notifications.AcknowledgeAll(targetID); err != nil {
		return err
	}
	s.dispatcher.Deliver(targetID, event.New(event.AllNotificationsRead, targetID))
	return nil
}

func (s *ChatService) JoinSession(userID string, sink contract.EventSink) {
	s.registry.Register(userID, sink)
}

func (s *ChatService) LeaveSession(userID string, sink contract.EventSink) {
	s.registry.Unregister(userID, sink)
}

func pairKey(senderID, receiverID string) string {
	return senderID + "→" + receiverID
}
