package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"chat-desk/contract"
	"chat-desk/domain"
	cderrors "chat-desk/errors"
)

// Key layout in BadgerDB:
//
//	msg:{conversationKey}:{inverted_ts_19}:{inverted_seq_20}  -> JSON message
//	msgid:{uuid}                                              -> primary key
//	unread:{receiverID}:{senderID}:{uuid}                     -> empty
//
// The timestamp and sequence are inverted (MAX - value) and zero padded so
// a plain forward prefix scan yields newest-first order, ties broken by
// insertion sequence. The msgid entry gives O(1) access for MarkRead, the
// unread entries make per-sender badge counts a prefix scan.
type MessageRepository struct {
	db       *badger.DB
	index    *bluge.Writer
	log      *slog.Logger
	seq      *badger.Sequence
	validate *validator.Validate
}

func NewMessageRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:msg"), 128)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{
		db:       db,
		index:    index,
		log:      log,
		seq:      seq,
		validate: validator.New(),
	}, nil
}

// Close releases the leased sequence range. The badger and bluge handles
// are owned by the caller.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

const (
	msgPrefix    = "msg:"
	msgIDPrefix  = "msgid:"
	unreadPrefix = "unread:"
)

func messageKey(key domain.ConversationKey, at time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%020d",
		msgPrefix, key, math.MaxInt64-at.UnixNano(), math.MaxUint64-seq))
}

func idKey(id uuid.UUID) []byte {
	return []byte(msgIDPrefix + id.String())
}

func unreadKey(msg domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%s", unreadPrefix, msg.ReceiverID, msg.SenderID, msg.ID))
}

// Store validates and persists a message with read=false, then feeds the
// search index. Badger is the source of truth: an indexing failure is
// logged, not surfaced, since search is a secondary view over the store.
func (m *MessageRepository) Store(ctx context.Context, cmd contract.SendMessage) (domain.Message, error) {
	if err := m.validate.Struct(cmd); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", cderrors.ErrInvalidMessage, err)
	}
	if cmd.Body == "" && cmd.Attachment == nil {
		return domain.Message{}, cderrors.ErrInvalidMessage
	}

	seq, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("next sequence: %w", err)
	}

	msg := domain.Message{
		ID:         uuid.New(),
		SenderID:   cmd.SenderID,
		ReceiverID: cmd.ReceiverID,
		Body:       cmd.Body,
		Attachment: cmd.Attachment,
		Read:       false,
		CreatedAt:  time.Now().UTC(),
		Seq:        seq,
	}

	primary := messageKey(msg.Conversation(), msg.CreatedAt, msg.Seq)
	value, err := json.Marshal(msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal message: %w", err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(primary, value); err != nil {
			return err
		}
		if err := txn.Set(idKey(msg.ID), primary); err != nil {
			return err
		}
		return txn.Set(unreadKey(msg), nil)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("persist message: %w", err)
	}

	if err := m.indexMessage(msg, primary); err != nil {
		m.log.Error("message stored but not indexed", "id", msg.ID, "error", err)
	}
	return msg, nil
}

func (m *MessageRepository) indexMessage(msg domain.Message, primary []byte) error {
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewKeywordField("conversation", msg.Conversation().String())).
		AddField(bluge.NewTextField("body", msg.Body)).
		AddField(bluge.NewDateTimeField("at", msg.CreatedAt).Sortable()).
		AddField(bluge.NewStoredOnlyField("key", primary))
	if msg.Attachment != nil {
		doc.AddField(bluge.NewTextField("filename", filenameTerms(msg.Attachment.Filename))).
			AddField(bluge.NewKeywordField("category", string(msg.Attachment.Category)))
	}
	return m.index.Update(doc.ID(), doc)
}

// filenameTerms rewrites punctuation to spaces before indexing. The
// standard analyzer keeps dot- and underscore-joined names such as
// "invoice.pdf" as one token, which a keyword like "invoice" would
// never match.
func filenameTerms(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, name)
}

// ListByConversation pages through a conversation newest-first.
// Pagination is offset based: concurrent inserts may shift later pages.
// That matches the behavior callers already rely on; see DESIGN.md.
func (m *MessageRepository) ListByConversation(key domain.ConversationKey, page, pageSize int) ([]domain.Message, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	var (
		messages []domain.Message
		total    int
		offset   = (page - 1) * pageSize
	)
	prefix := []byte(msgPrefix + key.String() + ":")

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		pos := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			total++
			if pos < offset || len(messages) >= pageSize {
				pos++
				continue
			}
			pos++
			err := it.Item().Value(func(val []byte) error {
				var msg domain.Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list conversation %s: %w", key, err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	return messages, totalPages, nil
}

// Search runs the AND-combined filters against the bluge index and
// hydrates full records from badger, so the read flag is never stale.
func (m *MessageRepository) Search(ctx context.Context, q contract.SearchQuery) ([]domain.Message, error) {
	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(q.Conversation.String()).SetField("conversation"))

	if q.Keyword != "" {
		keyword := bluge.NewBooleanQuery().
			AddShould(bluge.NewMatchQuery(q.Keyword).SetField("body")).
			AddShould(bluge.NewMatchQuery(q.Keyword).SetField("filename"))
		keyword.SetMinShould(1)
		query.AddMust(keyword)
	}
	if !q.From.IsZero() || !q.To.IsZero() {
		from, to := q.From, q.To
		if to.IsZero() {
			to = time.Now().UTC().Add(24 * time.Hour)
		}
		query.AddMust(bluge.NewDateRangeInclusiveQuery(from, to, true, true).SetField("at"))
	}
	if q.Category != "" {
		query.AddMust(bluge.NewTermQuery(string(q.Category)).SetField("category"))
	}

	const searchLimit = 500
	request := bluge.NewTopNSearch(searchLimit, query)
	switch {
	case q.SortBy == "relevance":
		// default score order
	case q.Ascending:
		request = request.SortBy([]string{"at"})
	default:
		request = request.SortBy([]string{"-at"})
	}

	reader, err := m.index.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	var primaryKeys [][]byte
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate matches: %w", err)
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "key" {
				key := make([]byte, len(value))
				copy(key, value)
				primaryKeys = append(primaryKeys, key)
			}
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("visit stored fields: %w", err)
		}
	}

	return m.hydrate(primaryKeys)
}

func (m *MessageRepository) hydrate(keys [][]byte) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get(key)
			if err != nil {
				// Index can briefly reference a key the store no longer
				// resolves; skip rather than fail the whole search.
				m.log.Warn("stale index entry", "key", string(key))
				continue
			}
			err = item.Value(func(val []byte) error {
				var msg domain.Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

// MarkRead flips the read flag. Re-reading an already-read message is a
// no-op success, so retries are safe.
func (m *MessageRepository) MarkRead(id uuid.UUID) (domain.Message, error) {
	var msg domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		ref, err := txn.Get(idKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return cderrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load message ref: %w", err)
		}
		var primary []byte
		if err := ref.Value(func(val []byte) error {
			primary = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}

		item, err := txn.Get(primary)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return cderrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load message: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &msg)
		}); err != nil {
			return err
		}

		if msg.Read {
			return nil
		}
		msg.Read = true
		value, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err := txn.Set(primary, value); err != nil {
			return err
		}
		return txn.Delete(unreadKey(msg))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// CountUnreadBySender aggregates outstanding unread messages addressed to
// receiverID, grouped by sender. Used for per-contact badges.
func (m *MessageRepository) CountUnreadBySender(receiverID string) (map[string]int, error) {
	counts := make(map[string]int)
	prefix := []byte(unreadPrefix + receiverID + ":")

	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rest := it.Item().Key()[len(prefix):]
			// rest is "{senderID}:{uuid}"; the uuid tail is fixed width
			if len(rest) <= 37 {
				continue
			}
			sender := string(rest[:len(rest)-37])
			counts[sender]++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count unread for %s: %w", receiverID, err)
	}
	return counts, nil
}
