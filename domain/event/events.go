package event

import "time"

// Name identifies the kind of a live event as seen by clients.
type Name string

const (
	NewMessage           Name = "newMessage"
	NewNotification      Name = "newNotification"
	NotificationRead     Name = "notificationRead"
	AllNotificationsRead Name = "allNotificationsRead"
)

// DomainEvent is the unit pushed over a live connection.
// The payload is the full persisted record (Message or Notification),
// already durable before the event is built.
type DomainEvent struct {
	Name    Name      `json:"event"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

func New(name Name, payload any) DomainEvent {
	return DomainEvent{Name: name, Payload: payload, At: time.Now().UTC()}
}
