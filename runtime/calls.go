package runtime

import (
	"log/slog"
	"sync"
	"time"

	"lexchat/domain"
	apperrors "lexchat/errors"
)

// Grace periods before a terminal-state call is dropped from memory,
// absorbing late duplicate events from the peer.
const (
	DeclineGrace = 30 * time.Second
	EndGrace     = 5 * time.Second
)

type callEntry struct {
	call    *domain.Call
	removal *time.Timer
	// gen identifies the currently armed removal timer. An expiry callback
	// carrying an older generation lost a re-arm race and must not delete.
	gen uint64
}

// CallRegistry owns every in-flight call. All reads and transitions run
// under its lock, so two racing terminal events on the same call resolve
// to one winner and one ErrCallTerminal.
type CallRegistry struct {
	mu       sync.Mutex
	calls    map[string]*callEntry
	log      *slog.Logger
	timerGen uint64

	// now is swappable in tests.
	now func() time.Time
}

func NewCallRegistry(log *slog.Logger) *CallRegistry {
	return &CallRegistry{
		calls: make(map[string]*callEntry),
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a new call in the initiated state. A stale call under
// the same id is replaced and its pending removal cancelled, but only a
// participant may replace a call that is still in flight; a foreign actor
// reusing a live id gets ErrCallNotFound, like every other foreign access.
func (r *CallRegistry) Create(id, initiatorID, recipientID, topic string) (domain.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.calls[id]; ok {
		if !previous.call.Status.Terminal() && !previous.call.Participant(initiatorID) {
			return domain.Call{}, apperrors.ErrCallNotFound
		}
		if previous.removal != nil {
			previous.removal.Stop()
		}
	}
	call := &domain.Call{
		ID:          id,
		InitiatorID: initiatorID,
		RecipientID: recipientID,
		Topic:       topic,
		Status:      domain.CallInitiated,
		CreatedAt:   r.now(),
	}
	r.calls[id] = &callEntry{call: call}
	return *call, nil
}

// Update runs fn on the call under the registry lock and returns a copy of
// the resulting state. The actor must be a participant; a missing call and
// a foreign actor are reported identically as ErrCallNotFound so callers
// cannot enumerate call ids.
func (r *CallRegistry) Update(id, actorID string, fn func(*domain.Call) error) (domain.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.calls[id]
	if !ok || !entry.call.Participant(actorID) {
		return domain.Call{}, apperrors.ErrCallNotFound
	}
	if err := fn(entry.call); err != nil {
		return domain.Call{}, err
	}
	return *entry.call, nil
}

// ScheduleRemoval arms the terminal-state grace timer. Any previously
// armed timer is cancelled first, so a duplicate terminal event re-arms
// the cleanup instead of double-firing it. Stop cannot cancel a callback
// that has already fired and is waiting on the lock, so each armed timer
// carries a generation and expire rejects stale ones.
func (r *CallRegistry) ScheduleRemoval(id string, after time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.calls[id]
	if !ok {
		return
	}
	if entry.removal != nil {
		entry.removal.Stop()
	}
	r.timerGen++
	gen := r.timerGen
	entry.gen = gen
	entry.removal = time.AfterFunc(after, func() {
		r.expire(id, gen)
	})
}

// expire is the removal timer's callback: it deletes the call only if the
// firing timer is still the armed one.
func (r *CallRegistry) expire(id string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.calls[id]
	if !ok || entry.gen != gen {
		return
	}
	delete(r.calls, id)
	r.log.Debug("call removed from memory", "call_id", id)
}

// Remove drops the call immediately, cancelling any pending grace timer.
func (r *CallRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.calls[id]
	if !ok {
		return
	}
	if entry.removal != nil {
		entry.removal.Stop()
	}
	delete(r.calls, id)
	r.log.Debug("call removed from memory", "call_id", id)
}

// ParticipantCallIDs lists the calls the user takes part in, used by the
// disconnect reconciler.
func (r *CallRegistry) ParticipantCallIDs(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id, entry := range r.calls {
		if entry.call.Participant(userID) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Lookup returns a copy of the call's current state.
func (r *CallRegistry) Lookup(id string) (domain.Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.calls[id]
	if !ok {
		return domain.Call{}, false
	}
	return *entry.call, true
}
