package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindFile  MessageKind = "file"
)

// Message is a chat event persisted by the message store. Once written it
// is never edited or deleted; the only permitted mutation is flipping Read
// to true through a bulk read-receipt.
type Message struct {
	ID          uuid.UUID   `json:"id"`
	SenderID    string      `json:"senderId"`
	RecipientID string      `json:"recipientId"`
	Body        string      `json:"message"`
	Kind        MessageKind `json:"messageType"`
	Room        string      `json:"chatRoom"`
	Language    string      `json:"language,omitempty"`
	Read        bool        `json:"isRead"`
	SentAt      time.Time   `json:"timestamp"`
}
