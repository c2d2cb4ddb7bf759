package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-desk/domain"
)

func notify(t *testing.T, repository *NotificationRepository, target, text string) domain.Notification {
	t.Helper()
	origin := "alice"
	n, err := repository.Create(target, "New message", text, &origin, nil)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	return n
}

func TestNotificationRepository_Create_And_List_Newest_First(t *testing.T) {
	req := require.New(t)
	repository := NewNotificationRepository(openBadger(t), testLogger(), 50)

	first := notify(t, repository, "bob", "one")
	second := notify(t, repository, "bob", "two")
	notify(t, repository, "clara", "unrelated")

	notifications, outstanding, err := repository.ListForUser("bob")
	req.NoError(err)
	req.Equal(2, outstanding)
	req.Len(notifications, 2)
	req.Equal(second.ID, notifications[0].ID)
	req.Equal(first.ID, notifications[1].ID)
	req.Equal("alice", *notifications[0].OriginID)
}

func TestNotificationRepository_List_Is_Bounded_Count_Is_Exact(t *testing.T) {
	req := require.New(t)
	repository := NewNotificationRepository(openBadger(t), testLogger(), 2)

	for i := 0; i < 5; i++ {
		notify(t, repository, "bob", "ping")
	}

	notifications, outstanding, err := repository.ListForUser("bob")
	req.NoError(err)
	req.Len(notifications, 2)
	req.Equal(5, outstanding)
}

func TestNotificationRepository_Acknowledge_Deletes_And_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewNotificationRepository(openBadger(t), testLogger(), 50)

	keep := notify(t, repository, "bob", "keep")
	drop := notify(t, repository, "bob", "drop")

	req.NoError(repository.Acknowledge(drop.ID))

	notifications, outstanding, err := repository.ListForUser("bob")
	req.NoError(err)
	req.Equal(1, outstanding)
	req.Len(notifications, 1)
	req.Equal(keep.ID, notifications[0].ID)

	// Acknowledging again, or acknowledging an unknown id, still succeeds
	req.NoError(repository.Acknowledge(drop.ID))
	req.NoError(repository.Acknowledge(uuid.New()))
}

func TestNotificationRepository_AcknowledgeAll(t *testing.T) {
	req := require.New(t)
	repository := NewNotificationRepository(openBadger(t), testLogger(), 50)

	for i := 0; i < 3; i++ {
		notify(t, repository, "bob", "ping")
	}
	other := notify(t, repository, "clara", "untouched")

	req.NoError(repository.AcknowledgeAll("bob"))

	notifications, outstanding, err := repository.ListForUser("bob")
	req.NoError(err)
	req.Empty(notifications)
	req.Zero(outstanding)

	// Other targets keep their sets, and clearing an empty set succeeds
	remaining, outstanding, err := repository.ListForUser("clara")
	req.NoError(err)
	req.Equal(1, outstanding)
	req.Equal(other.ID, remaining[0].ID)
	req.NoError(repository.AcknowledgeAll("bob"))
}
