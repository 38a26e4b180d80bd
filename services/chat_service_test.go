package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lexchat/domain"
)

func TestChatService_SendMessage_Broadcasts_To_Room(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	aliceSink := env.connect("alice", "Alice")
	bobSink := env.connect("bob", "Bob")
	env.chat.JoinChat(alice, "bob")
	env.chat.JoinChat(bob, "alice")

	message, err := env.chat.SendMessage(ctx, alice, "bob", "hello bob", domain.KindText)
	req.NoError(err)
	req.Equal(domain.RoomKey("alice", "bob"), message.Room)
	req.False(message.Read)

	// Sender gets the echo, recipient gets the message.
	req.Len(aliceSink.named(domain.EvReceiveMessage), 1)
	req.Len(bobSink.named(domain.EvReceiveMessage), 1)

	// Recipient was subscribed to the room: no side notification.
	req.Empty(bobSink.named(domain.EvNewNotification))

	// And the message hit the store.
	stored, _, err := env.repo.GetMessages(ctx, message.Room, 1, 10)
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal("hello bob", stored[0].Body)
}

func TestChatService_SendMessage_Defaults_Kind_To_Text(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	env.connect("alice", "Alice")
	message, err := env.chat.SendMessage(context.Background(), alice, "bob", "hi", "")
	req.NoError(err)
	req.Equal(domain.KindText, message.Kind)
}

func TestChatService_SendMessage_Notifies_Recipient_Outside_Room(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	env.connect("alice", "Alice")
	bobSink := env.connect("bob", "Bob")
	env.chat.JoinChat(alice, "bob")

	body := strings.Repeat("x", 80)
	_, err := env.chat.SendMessage(context.Background(), alice, "bob", body, domain.KindText)
	req.NoError(err)

	notifications := bobSink.named(domain.EvNewNotification)
	req.Len(notifications, 1)
	payload := notifications[0].Data.(domain.NotificationPayload)
	req.Equal("Alice", payload.From)
	req.Equal(strings.Repeat("x", 50)+"...", payload.Message)
	req.Equal(domain.RoomKey("alice", "bob"), payload.ChatRoom)
}

func TestChatService_SendMessage_Censors_And_Tags_Language(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	env.connect("alice", "Alice")
	message, err := env.chat.SendMessage(context.Background(), alice, "bob",
		"that swearword is not in the vocabulary list today", domain.KindText)
	req.NoError(err)
	req.Equal("that ********* is not in the vocabulary list today", message.Body)
	req.Equal("en", message.Language)
}

func TestChatService_MarkRead_Flips_And_Notifies_Once(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	aliceSink := env.connect("alice", "Alice")
	env.connect("bob", "Bob")
	env.chat.JoinChat(alice, "bob")
	env.chat.JoinChat(bob, "alice")
	room := domain.RoomKey("alice", "bob")

	_, err := env.chat.SendMessage(ctx, alice, "bob", "read me", domain.KindText)
	req.NoError(err)
	aliceSink.reset()

	req.NoError(env.chat.MarkRead(ctx, bob, room))

	receipts := aliceSink.named(domain.EvMessagesRead)
	req.Len(receipts, 1)
	payload := receipts[0].Data.(domain.ReadReceiptPayload)
	req.Equal("bob", payload.ReadBy)
	req.Equal(room, payload.ChatRoom)

	stored, _, err := env.repo.GetMessages(ctx, room, 1, 10)
	req.NoError(err)
	req.True(stored[0].Read)

	// Idempotent: nothing unread left, no second receipt.
	aliceSink.reset()
	req.NoError(env.chat.MarkRead(ctx, bob, room))
	req.Empty(aliceSink.named(domain.EvMessagesRead))
}

func TestChatService_Typing_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	aliceSink := env.connect("alice", "Alice")
	bobSink := env.connect("bob", "Bob")
	env.chat.JoinChat(alice, "bob")
	env.chat.JoinChat(bob, "alice")

	env.chat.Typing(alice, "bob", true)

	req.Empty(aliceSink.named(domain.EvUserTyping))
	typing := bobSink.named(domain.EvUserTyping)
	req.Len(typing, 1)
	payload := typing[0].Data.(domain.TypingPayload)
	req.Equal("alice", payload.UserID)
	req.Equal("Alice", payload.Username)
	req.True(payload.IsTyping)
}

func TestChatService_GetHistory_Pagination(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	env.connect("alice", "Alice")
	for _, body := range []string{"one", "two", "three"} {
		_, err := env.chat.SendMessage(ctx, alice, "bob", body, domain.KindText)
		req.NoError(err)
		time.Sleep(time.Millisecond)
	}

	page1, err := env.chat.GetHistory(ctx, alice, "bob", 1, 2)
	req.NoError(err)
	req.True(page1.HasMore)
	req.Len(page1.Messages, 2)
	// The two most recent, re-ordered to chronological.
	req.Equal("two", page1.Messages[0].Body)
	req.Equal("three", page1.Messages[1].Body)

	page2, err := env.chat.GetHistory(ctx, alice, "bob", 2, 2)
	req.NoError(err)
	req.False(page2.HasMore)
	req.Len(page2.Messages, 1)
	req.Equal("one", page2.Messages[0].Body)
}

func TestChatService_GetHistory_Defaults(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	env.connect("alice", "Alice")
	_, err := env.chat.SendMessage(ctx, alice, "bob", "solo", domain.KindText)
	req.NoError(err)

	history, err := env.chat.GetHistory(ctx, alice, "bob", 0, 0)
	req.NoError(err)
	req.Len(history.Messages, 1)
	req.False(history.HasMore)
	req.Equal(domain.RoomKey("alice", "bob"), history.ChatRoom)
}
