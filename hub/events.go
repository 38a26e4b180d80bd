package hub

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Envelope is the inbound frame. The payload is decoded exactly once,
// into the typed struct of the named event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Inbound event names.
const (
	evJoinChat        = "join_chat"
	evSendMessage     = "send_message"
	evMarkRead        = "mark_messages_read"
	evTyping          = "typing"
	evGetHistory      = "get_chat_history"
	evInitiateCall    = "initiate_call"
	evCallRequest     = "call_request"
	evAcceptCall      = "accept_call"
	evDeclineCall     = "decline_call"
	evEndCall         = "end_call"
	evSpeakerChange   = "speaker_change"
	evWebRTCOffer     = "webrtc_offer"
	evWebRTCAnswer    = "webrtc_answer"
	evWebRTCCandidate = "webrtc_ice_candidate"
)

type joinChatPayload struct {
	RecipientID string `json:"recipientId" validate:"required"`
}

type sendMessagePayload struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Message     string `json:"message" validate:"required"`
	MessageType string `json:"messageType" validate:"omitempty,oneof=text image file"`
}

type markReadPayload struct {
	ChatRoom string `json:"chatRoom" validate:"required"`
}

type typingPayload struct {
	RecipientID string `json:"recipientId" validate:"required"`
	IsTyping    bool   `json:"isTyping"`
}

type historyPayload struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Page        int    `json:"page" validate:"omitempty,min=1"`
	Limit       int    `json:"limit" validate:"omitempty,min=1,max=200"`
}

type initiateCallPayload struct {
	RecipientID string `json:"recipientId" validate:"required"`
	Topic       string `json:"topic"`
	CallID      string `json:"callId" validate:"required"`
}

type callIDPayload struct {
	CallID string `json:"callId" validate:"required"`
}

type speakerChangePayload struct {
	CallID    string `json:"callId" validate:"required"`
	SpeakerID string `json:"speakerId" validate:"required"`
}

// decodePayload unmarshals and validates an inbound payload in one step.
func decodePayload[T any](data json.RawMessage, out *T) error {
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	return validate.Struct(out)
}
