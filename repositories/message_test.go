package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"lexchat/domain"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testMessage(room, sender, recipient, body string, at time.Time) domain.Message {
	return domain.Message{
		ID:          uuid.New(),
		SenderID:    sender,
		RecipientID: recipient,
		Body:        body,
		Kind:        domain.KindText,
		Room:        room,
		SentAt:      at,
	}
}

func Test_Store_And_Fetch_Single_Page(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	ctx := context.Background()
	room := domain.RoomKey("alice", "bob")
	at := time.Now().UTC()

	stored := []domain.Message{
		testMessage(room, "alice", "bob", "first", at),
		testMessage(room, "bob", "alice", "second", at.Add(time.Minute)),
		testMessage(room, "alice", "bob", "third", at.Add(2*time.Minute)),
	}
	for _, message := range stored {
		req.NoError(repository.StoreMessage(ctx, message))
	}

	// Newest first, page was not full.
	fetched, hasMore, err := repository.GetMessages(ctx, room, 1, 10)
	req.NoError(err)
	req.False(hasMore)
	req.Len(fetched, 3)
	req.Equal("third", fetched[0].Body)
	req.Equal("second", fetched[1].Body)
	req.Equal("first", fetched[2].Body)
}

func Test_Fetch_Pagination(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	ctx := context.Background()
	room := domain.RoomKey("alice", "bob")
	at := time.Now().UTC()

	for i, body := range []string{"one", "two", "three"} {
		req.NoError(repository.StoreMessage(ctx, testMessage(room, "alice", "bob", body, at.Add(time.Duration(i)*time.Minute))))
	}

	page1, hasMore, err := repository.GetMessages(ctx, room, 1, 2)
	req.NoError(err)
	req.True(hasMore)
	req.Len(page1, 2)
	req.Equal("three", page1[0].Body)
	req.Equal("two", page1[1].Body)

	page2, hasMore, err := repository.GetMessages(ctx, room, 2, 2)
	req.NoError(err)
	req.False(hasMore)
	req.Len(page2, 1)
	req.Equal("one", page2[0].Body)
}

func Test_Fetch_Ignores_Other_Rooms(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	ctx := context.Background()
	at := time.Now().UTC()

	req.NoError(repository.StoreMessage(ctx, testMessage(domain.RoomKey("alice", "bob"), "alice", "bob", "ours", at)))
	req.NoError(repository.StoreMessage(ctx, testMessage(domain.RoomKey("alice", "clara"), "alice", "clara", "theirs", at)))

	fetched, _, err := repository.GetMessages(ctx, domain.RoomKey("alice", "bob"), 1, 10)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("ours", fetched[0].Body)
}

func Test_MarkMessagesRead_Flips_Only_Recipient_Unread(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	ctx := context.Background()
	room := domain.RoomKey("alice", "bob")
	at := time.Now().UTC()

	req.NoError(repository.StoreMessage(ctx, testMessage(room, "alice", "bob", "to bob", at)))
	req.NoError(repository.StoreMessage(ctx, testMessage(room, "bob", "alice", "to alice", at.Add(time.Minute))))

	flipped, err := repository.MarkMessagesRead(ctx, room, "bob")
	req.NoError(err)
	req.Equal(1, flipped)

	fetched, _, err := repository.GetMessages(ctx, room, 1, 10)
	req.NoError(err)
	for _, message := range fetched {
		if message.RecipientID == "bob" {
			req.True(message.Read)
		} else {
			req.False(message.Read)
		}
	}
}

func Test_MarkMessagesRead_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	ctx := context.Background()
	room := domain.RoomKey("alice", "bob")

	req.NoError(repository.StoreMessage(ctx, testMessage(room, "alice", "bob", "hello", time.Now().UTC())))

	flipped, err := repository.MarkMessagesRead(ctx, room, "bob")
	req.NoError(err)
	req.Equal(1, flipped)

	flipped, err = repository.MarkMessagesRead(ctx, room, "bob")
	req.NoError(err)
	req.Zero(flipped)
}

func Test_Same_Sender_Order_Is_Preserved(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	ctx := context.Background()
	room := domain.RoomKey("alice", "bob")

	// Two back-to-back sends from the same handler invocation carry
	// monotonically increasing server timestamps.
	first := testMessage(room, "alice", "bob", "first", time.Now().UTC())
	second := testMessage(room, "alice", "bob", "second", time.Now().UTC().Add(time.Microsecond))
	req.NoError(repository.StoreMessage(ctx, first))
	req.NoError(repository.StoreMessage(ctx, second))

	fetched, _, err := repository.GetMessages(ctx, room, 1, 10)
	req.NoError(err)
	req.Equal("second", fetched[0].Body)
	req.Equal("first", fetched[1].Body)
}
