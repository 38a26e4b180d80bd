// Package runtime owns the process-wide mutable state of the realtime
// layer: live sessions, room subscriptions and in-flight calls. All state
// here is lost on restart, which is acceptable because live connections
// die with the process anyway.
package runtime

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"lexchat/contract"
	"lexchat/domain"
)

type set map[string]struct{}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*contract.Session // userID -> live session
	rooms    map[string]set               // room key -> member userIDs
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*contract.Session),
		rooms:    make(map[string]set),
	}
}

// Register records a live session for the identity. An existing session
// for the same user is silently overwritten: last-connection-wins, there
// is no multi-device fan-out.
func (r *Registry) Register(identity domain.Identity, sink contract.EventSink) *contract.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := &contract.Session{
		Identity:    identity,
		Sink:        sink,
		OnlineSince: time.Now().UTC(),
	}
	r.sessions[identity.ID] = session
	return session
}

// Unregister removes the user's session only if it still is the given one.
// A replaced connection's late disconnect must not evict its successor.
func (r *Registry) Unregister(userID string, session *contract.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[userID]
	if !ok || current != session {
		return false
	}
	delete(r.sessions, userID)
	r.dropFromRooms(userID)
	return true
}

func (r *Registry) Lookup(userID string) (*contract.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[userID]
	return session, ok
}

// Snapshot returns the full presence set, ordered by user id so every
// broadcast carries a deterministic sequence.
func (r *Registry) Snapshot() []domain.SessionSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := lo.MapToSlice(r.sessions, func(_ string, s *contract.Session) domain.SessionSummary {
		return domain.SessionSummary{
			UserID:      s.Identity.ID,
			Username:    s.Identity.Username,
			IsOnline:    true,
			OnlineSince: s.OnlineSince,
		}
	})
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].UserID < summaries[j].UserID })
	return summaries
}

// JoinRoom subscribes the user to a room's broadcast set. Rooms are
// created on the fly and carry no membership limit.
func (r *Registry) JoinRoom(userID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(set)
	}
	r.rooms[room][userID] = struct{}{}
}

// LeaveAllRooms drops the user from every room subscription, leaving no
// empty sets behind.
func (r *Registry) LeaveAllRooms(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropFromRooms(userID)
}

func (r *Registry) dropFromRooms(userID string) {
	for room, members := range r.rooms {
		delete(members, userID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

func (r *Registry) InRoom(userID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	_, ok = members[userID]
	return ok
}

// RoomSessions resolves a room's members into their live sessions. Members
// whose session has gone are skipped.
func (r *Registry) RoomSessions(room string) []*contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return nil
	}
	var sessions []*contract.Session
	for userID := range members {
		if session, found := r.sessions[userID]; found {
			sessions = append(sessions, session)
		}
	}
	return sessions
}

// All returns every live session, for process-wide broadcasts.
func (r *Registry) All() []*contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.sessions)
}
