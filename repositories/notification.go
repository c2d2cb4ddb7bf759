package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-desk/domain"
)

// Key layout in BadgerDB:
//
//	ntf:{targetID}:{inverted_ts_19}:{uuid}  -> JSON notification
//	ntfid:{uuid}                            -> primary key
//
// Same inverted-timestamp trick as messages: a forward prefix scan per
// target yields newest-first. Acknowledged notifications are hard-deleted,
// so "unread" is simply "still present".
type NotificationRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit int
}

// NewNotificationRepository caps ListForUser at limit entries (the
// outstanding count is still exact).
func NewNotificationRepository(db *badger.DB, log *slog.Logger, limit int) *NotificationRepository {
	if limit <= 0 {
		limit = 50
	}
	return &NotificationRepository{db: db, log: log, limit: limit}
}

const (
	ntfPrefix   = "ntf:"
	ntfIDPrefix = "ntfid:"
)

func notificationKey(n domain.Notification) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s",
		ntfPrefix, n.TargetID, math.MaxInt64-n.CreatedAt.UnixNano(), n.ID))
}

func notificationIDKey(id uuid.UUID) []byte {
	return []byte(ntfIDPrefix + id.String())
}

func (r *NotificationRepository) Create(targetID, title, text string, originID *string, metadata map[string]string) (domain.Notification, error) {
	n := domain.Notification{
		ID:        uuid.New(),
		TargetID:  targetID,
		OriginID:  originID,
		Title:     title,
		Text:      text,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	value, err := json.Marshal(n)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("marshal notification: %w", err)
	}

	primary := notificationKey(n)
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(primary, value); err != nil {
			return err
		}
		return txn.Set(notificationIDKey(n.ID), primary)
	})
	if err != nil {
		return domain.Notification{}, fmt.Errorf("persist notification: %w", err)
	}
	return n, nil
}

// ListForUser returns the most recent entries (bounded) plus the exact
// count of everything still outstanding for the target.
func (r *NotificationRepository) ListForUser(targetID string) ([]domain.Notification, int, error) {
	var (
		notifications []domain.Notification
		outstanding   int
	)
	prefix := []byte(ntfPrefix + targetID + ":")

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			outstanding++
			if len(notifications) >= r.limit {
				continue
			}
			err := it.Item().Value(func(val []byte) error {
				var n domain.Notification
				if err := json.Unmarshal(val, &n); err != nil {
					return err
				}
				notifications = append(notifications, n)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications for %s: %w", targetID, err)
	}
	return notifications, outstanding, nil
}

// Acknowledge hard-deletes the record. An unknown id means the record was
// already acknowledged; that is a success so retries stay safe.
func (r *NotificationRepository) Acknowledge(id uuid.UUID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		ref, err := txn.Get(notificationIDKey(id))
		if err != nil {
			return badger.ErrKeyNotFound
		}
		var primary []byte
		if err := ref.Value(func(val []byte) error {
			primary = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}
		if err := txn.Delete(primary); err != nil {
			return err
		}
		return txn.Delete(notificationIDKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		r.log.Debug("acknowledge on missing notification treated as done", "id", id)
		return nil
	}
	return err
}

// AcknowledgeAll clears every outstanding notification for the target.
// An already-empty set is a success.
func (r *NotificationRepository) AcknowledgeAll(targetID string) error {
	prefix := []byte(ntfPrefix + targetID + ":")

	return r.db.Update(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = true
		it := txn.NewIterator(options)
		defer it.Close()

		var primaries [][]byte
		var ids []uuid.UUID
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			primaries = append(primaries, key)
			err := it.Item().Value(func(val []byte) error {
				var n domain.Notification
				if err := json.Unmarshal(val, &n); err != nil {
					return err
				}
				ids = append(ids, n.ID)
				return nil
			})
			if err != nil {
				return err
			}
		}

		for _, key := range primaries {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for _, id := range ids {
			if err := txn.Delete(notificationIDKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
}
