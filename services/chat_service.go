package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"lexchat/contract"
	"lexchat/domain"
	"lexchat/moderation"
)

const (
	defaultHistoryPage  = 1
	defaultHistoryLimit = 50
	notificationMaxLen  = 50
)

// ChatService coordinates room membership, message fan-out, typing
// indicators, read receipts and history paging.
type ChatService struct {
	log       *slog.Logger
	registry  contract.IRegistry
	messages  contract.IMessageRepository
	moderator *moderation.Moderator
}

func NewChatService(log *slog.Logger, registry contract.IRegistry,
	messages contract.IMessageRepository, moderator *moderation.Moderator) *ChatService {
	return &ChatService{log: log, registry: registry, messages: messages, moderator: moderator}
}

// JoinChat subscribes the caller to the shared room with the recipient.
// Any authenticated user may join a room with any recipient id; that trust
// assumption is accepted for this product.
func (s *ChatService) JoinChat(self domain.Identity, recipientID string) string {
	room := domain.RoomKey(self.ID, recipientID)
	s.registry.JoinRoom(self.ID, room)
	s.log.Debug("joined chat room", "user", self.Username, "room", room)
	return room
}

// SendMessage persists the message then broadcasts it to the room,
// including the sender for echo. An online recipient who is not
// subscribed to the room additionally gets a truncated notification.
// Broadcast happens only after a successful write, so a persistence
// failure leaves no partial state behind.
func (s *ChatService) SendMessage(ctx context.Context, self domain.Identity,
	recipientID, body string, kind domain.MessageKind) (domain.Message, error) {
	if kind == "" {
		kind = domain.KindText
	}
	room := domain.RoomKey(self.ID, recipientID)

	message := domain.Message{
		ID:          uuid.New(),
		SenderID:    self.ID,
		RecipientID: recipientID,
		Body:        s.moderator.Censor(body),
		Kind:        kind,
		Room:        room,
		Language:    moderation.DetectLanguage(body),
		Read:        false,
		SentAt:      time.Now().UTC(),
	}

	if err := s.messages.StoreMessage(ctx, message); err != nil {
		s.log.Error("message persistence failed", "room", room, "error", err)
		return domain.Message{}, err
	}

	s.broadcastToRoom(room, "", domain.Event{Name: domain.EvReceiveMessage, Data: message})

	if recipient, online := s.registry.Lookup(recipientID); online && !s.registry.InRoom(recipientID, room) {
		recipient.Sink.Push(domain.Event{Name: domain.EvNewNotification, Data: domain.NotificationPayload{
			From:     self.Username,
			Message:  truncate(message.Body, notificationMaxLen),
			ChatRoom: room,
		}})
	}
	return message, nil
}

// MarkRead bulk-flips the reader's unread messages in the room and tells
// the other subscribers. With nothing unread the whole call is a no-op.
func (s *ChatService) MarkRead(ctx context.Context, self domain.Identity, room string) error {
	flipped, err := s.messages.MarkMessagesRead(ctx, room, self.ID)
	if err != nil {
		return err
	}
	if flipped == 0 {
		return nil
	}
	s.broadcastToRoom(room, self.ID, domain.Event{Name: domain.EvMessagesRead, Data: domain.ReadReceiptPayload{
		ReadBy:   self.ID,
		ChatRoom: room,
	}})
	return nil
}

// Typing is ephemeral: broadcast to the room minus the sender, never
// persisted.
func (s *ChatService) Typing(self domain.Identity, recipientID string, isTyping bool) {
	room := domain.RoomKey(self.ID, recipientID)
	s.broadcastToRoom(room, self.ID, domain.Event{Name: domain.EvUserTyping, Data: domain.TypingPayload{
		UserID:   self.ID,
		Username: self.Username,
		IsTyping: isTyping,
	}})
}

// GetHistory fetches one reverse-chronological page from the store and
// delivers it to the caller in chronological order. hasMore mirrors
// whether the page came back full.
func (s *ChatService) GetHistory(ctx context.Context, self domain.Identity,
	recipientID string, page, limit int) (domain.HistoryPayload, error) {
	if page <= 0 {
		page = defaultHistoryPage
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	room := domain.RoomKey(self.ID, recipientID)

	messages, hasMore, err := s.messages.GetMessages(ctx, room, page, limit)
	if err != nil {
		return domain.HistoryPayload{}, err
	}
	return domain.HistoryPayload{
		Messages: lo.Reverse(messages),
		ChatRoom: room,
		HasMore:  hasMore,
	}, nil
}

func (s *ChatService) broadcastToRoom(room, excludeID string, event domain.Event) {
	for _, session := range s.registry.RoomSessions(room) {
		if session.Identity.ID == excludeID {
			continue
		}
		if !session.Sink.Push(event) {
			s.log.Warn("dropping event for slow client",
				"event", event.Name, "user", session.Identity.ID)
		}
	}
}

func truncate(body string, max int) string {
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max]) + "..."
}
