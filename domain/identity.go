// Package domain contains the core concepts of the realtime layer:
// identities, sessions, rooms, messages and calls.
// No transport, storage or UI logic should be added here.
package domain

import "time"

// Identity is the read-only snapshot of a verified user, resolved once
// per connection and immutable for the connection's lifetime.
type Identity struct {
	ID       string
	Username string
}

// SessionSummary is the broadcastable view of a live session.
type SessionSummary struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	IsOnline    bool      `json:"isOnline"`
	OnlineSince time.Time `json:"onlineSince"`
}
