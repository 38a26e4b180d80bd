package domain

// Event is the outbound envelope pushed to connected clients.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Outbound event names.
const (
	EvUsersOnline      = "users_online"
	EvReceiveMessage   = "receive_message"
	EvNewNotification  = "new_message_notification"
	EvMessagesRead     = "messages_read"
	EvUserTyping       = "user_typing"
	EvChatHistory      = "chat_history"
	EvChatHistoryError = "chat_history_error"
	EvMessageError     = "message_error"
	EvCallRequest      = "call_request"
	EvCallAccepted     = "call_accepted"
	EvCallDeclined     = "call_declined"
	EvCallEnded        = "call_ended"
	EvCallError        = "call_error"
	EvSpeakerChange    = "speaker_change"
	EvWebRTCOffer      = "webrtc_offer"
	EvWebRTCAnswer     = "webrtc_answer"
	EvWebRTCCandidate  = "webrtc_ice_candidate"
)
