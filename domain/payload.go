package domain

import "encoding/json"

// Outbound payload shapes. Field names follow the wire contract consumed
// by the mobile and web clients.

type NotificationPayload struct {
	From     string `json:"from"`
	Message  string `json:"message"`
	ChatRoom string `json:"chatRoom"`
}

type ReadReceiptPayload struct {
	ReadBy   string `json:"readBy"`
	ChatRoom string `json:"chatRoom"`
}

type TypingPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type HistoryPayload struct {
	Messages []Message `json:"messages"`
	ChatRoom string    `json:"chatRoom"`
	HasMore  bool      `json:"hasMore"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type CallPayload struct {
	CallID       string `json:"callId"`
	From         string `json:"from,omitempty"`
	FromUsername string `json:"fromUsername,omitempty"`
	Topic        string `json:"topic,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type SpeakerChangePayload struct {
	CallID    string `json:"callId"`
	SpeakerID string `json:"speakerId"`
}

// SignalPayload carries session-negotiation data between two peers. The
// negotiation fields are opaque to the server and relayed verbatim; only
// To is consumed (and replaced by From) during the relay.
type SignalPayload struct {
	To        string          `json:"to,omitempty"`
	From      string          `json:"from,omitempty"`
	CallID    string          `json:"callId,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}
