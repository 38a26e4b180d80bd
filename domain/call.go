package domain

import "time"

type CallStatus string

const (
	CallInitiated CallStatus = "initiated"
	CallRinging   CallStatus = "calling"
	CallAccepted  CallStatus = "accepted"
	CallDeclined  CallStatus = "declined"
	CallEnded     CallStatus = "ended"
)

// Terminal reports whether no further transition is allowed from s.
func (s CallStatus) Terminal() bool {
	return s == CallDeclined || s == CallEnded
}

// Call is the lifecycle record of a negotiated voice session. It lives in
// memory only and is removed after a terminal-state grace period.
type Call struct {
	ID          string
	InitiatorID string
	RecipientID string
	Topic       string
	Status      CallStatus
	CreatedAt   time.Time
	EndedAt     *time.Time
}

// Participant reports whether userID is one of the two call parties.
func (c *Call) Participant(userID string) bool {
	return userID == c.InitiatorID || userID == c.RecipientID
}

// Peer returns the other party of the call relative to userID.
func (c *Call) Peer(userID string) string {
	if userID == c.InitiatorID {
		return c.RecipientID
	}
	return c.InitiatorID
}
