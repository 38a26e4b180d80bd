//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"lexchat/domain"
	apperrors "lexchat/errors"
)

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// messageKey formats the BadgerDB key as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the message UUID as a collision disconnector
//     if two messages arrive at the same nanosecond.
func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.Room, m.SentAt.UnixNano(), m.ID))
}

func roomPrefix(room string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", room))
}

// StoreMessage appends a message to the room log. A single insert is one
// Badger transaction, so it is atomic.
func (m MessageRepository) StoreMessage(_ context.Context, message domain.Message) error {
	value, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreFailure, err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), value)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreFailure, err)
	}
	return nil
}

// GetMessages returns one reverse-chronological page of a room's log.
// Thanks to the padded timestamp in the key, a reverse prefix scan yields
// newest-first order directly. hasMore is true when the page came back
// full, which is how the caller learns an older page may exist.
func (m MessageRepository) GetMessages(_ context.Context, room string, page, limit int) ([]domain.Message, bool, error) {
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * limit

	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := roomPrefix(room)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this room, then walk back.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		skipped := 0
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if skipped < skip {
				skipped++
				continue
			}
			if len(messages) == limit {
				break
			}
			var message domain.Message
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			})
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return messages, len(messages) == limit, nil
}

// MarkMessagesRead flips Read to true on every unread message in the room
// addressed to readerID, in a single transaction. Re-invoking with nothing
// unread is a no-op. Returns the number of flipped messages.
func (m MessageRepository) MarkMessagesRead(_ context.Context, room, readerID string) (int, error) {
	flipped := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		prefix := roomPrefix(room)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var message domain.Message
			err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			})
			if err != nil {
				return err
			}
			if message.Read || message.RecipientID != readerID {
				continue
			}
			message.Read = true
			value, err := json.Marshal(message)
			if err != nil {
				return err
			}
			if err = txn.Set(item.KeyCopy(nil), value); err != nil {
				return err
			}
			flipped++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if flipped > 0 {
		m.log.Debug("read receipts applied", "room", room, "reader", readerID, "count", flipped)
	}
	return flipped, nil
}
