package services

import (
	"log/slog"
	"time"

	"lexchat/contract"
	"lexchat/domain"
	apperrors "lexchat/errors"
	"lexchat/runtime"
)

const peerDisconnectedReason = "peer disconnected"

// CallService drives the call lifecycle state machine:
// initiated -> calling -> {accepted | declined} -> ended.
// Every transition except Initiate requires the actor to be a participant;
// an unknown call id and a foreign actor are indistinguishable to the
// caller. All failures come back as call_error events, never as a dropped
// connection.
type CallService struct {
	log      *slog.Logger
	registry contract.IRegistry
	calls    *runtime.CallRegistry
}

func NewCallService(log *slog.Logger, registry contract.IRegistry, calls *runtime.CallRegistry) *CallService {
	return &CallService{log: log, registry: registry, calls: calls}
}

// Initiate records the call in the initiated state. The recipient is not
// validated here: existence and reachability are only checked when the
// ring is requested. Reusing another pair's live call id is refused.
func (s *CallService) Initiate(self domain.Identity, callID, recipientID, topic string) (domain.Call, error) {
	call, err := s.calls.Create(callID, self.ID, recipientID, topic)
	if err != nil {
		return domain.Call{}, err
	}
	s.log.Info("call initiated", "call_id", callID, "initiator", self.ID, "recipient", recipientID)
	return call, nil
}

// Request rings the recipient, valid from initiated (first ring) or
// calling (re-ring of an unanswered call). With the recipient offline the
// call stays in initiated and the initiator gets the error; it is not
// auto-cancelled. An accepted call rejects the ring: a stray duplicate
// must not demote an in-progress call.
func (s *CallService) Request(self domain.Identity, callID string) error {
	call, ok := s.calls.Lookup(callID)
	if !ok || !call.Participant(self.ID) {
		return apperrors.ErrCallNotFound
	}

	recipient, online := s.registry.Lookup(call.RecipientID)
	if !online {
		return apperrors.ErrRecipientOffline
	}

	updated, err := s.calls.Update(callID, self.ID, func(c *domain.Call) error {
		if c.Status.Terminal() {
			return apperrors.ErrCallTerminal
		}
		if c.Status == domain.CallAccepted {
			return apperrors.ErrCallInProgress
		}
		c.Status = domain.CallRinging
		return nil
	})
	if err != nil {
		return err
	}

	recipient.Sink.Push(domain.Event{Name: domain.EvCallRequest, Data: domain.CallPayload{
		CallID:       updated.ID,
		From:         updated.InitiatorID,
		FromUsername: self.Username,
		Topic:        updated.Topic,
	}})
	return nil
}

// Accept is valid only for the call's recipient while the call is
// ringing. Both parties are notified of the acceptance.
func (s *CallService) Accept(self domain.Identity, callID string) error {
	updated, err := s.calls.Update(callID, self.ID, func(c *domain.Call) error {
		if self.ID != c.RecipientID {
			return apperrors.ErrCallNotFound
		}
		if c.Status != domain.CallRinging {
			return apperrors.ErrCallNotRinging
		}
		c.Status = domain.CallAccepted
		return nil
	})
	if err != nil {
		return err
	}

	event := domain.Event{Name: domain.EvCallAccepted, Data: domain.CallPayload{
		CallID: updated.ID,
		From:   updated.RecipientID,
	}}
	s.pushTo(updated.InitiatorID, event)
	s.pushTo(updated.RecipientID, event)
	return nil
}

// Decline is valid only for the recipient from any non-terminal state.
// The call lingers for a grace period to absorb late duplicate events.
func (s *CallService) Decline(self domain.Identity, callID string) error {
	updated, err := s.calls.Update(callID, self.ID, func(c *domain.Call) error {
		if self.ID != c.RecipientID {
			return apperrors.ErrCallNotFound
		}
		if c.Status.Terminal() {
			return apperrors.ErrCallTerminal
		}
		c.Status = domain.CallDeclined
		return nil
	})
	if err != nil {
		return err
	}

	s.pushTo(updated.InitiatorID, domain.Event{Name: domain.EvCallDeclined, Data: domain.CallPayload{
		CallID: updated.ID,
		From:   updated.RecipientID,
	}})
	s.calls.ScheduleRemoval(callID, runtime.DeclineGrace)
	return nil
}

// End is valid for either participant from any non-terminal state.
func (s *CallService) End(self domain.Identity, callID string) error {
	updated, err := s.calls.Update(callID, self.ID, func(c *domain.Call) error {
		if c.Status.Terminal() {
			return apperrors.ErrCallTerminal
		}
		c.Status = domain.CallEnded
		now := time.Now().UTC()
		c.EndedAt = &now
		return nil
	})
	if err != nil {
		return err
	}

	s.pushTo(updated.Peer(self.ID), domain.Event{Name: domain.EvCallEnded, Data: domain.CallPayload{
		CallID: updated.ID,
		From:   self.ID,
	}})
	s.calls.ScheduleRemoval(callID, runtime.EndGrace)
	return nil
}

// SpeakerChange notifies the other party of the active speaker. The call
// status is untouched.
func (s *CallService) SpeakerChange(self domain.Identity, callID, speakerID string) error {
	call, err := s.calls.Update(callID, self.ID, func(c *domain.Call) error { return nil })
	if err != nil {
		return err
	}
	s.pushTo(call.Peer(self.ID), domain.Event{Name: domain.EvSpeakerChange, Data: domain.SpeakerChangePayload{
		CallID:    call.ID,
		SpeakerID: speakerID,
	}})
	return nil
}

// ReconcileDisconnect force-ends every call the disconnecting user takes
// part in and drops them from memory immediately: the gone peer cannot
// send duplicate events, so no grace period is needed.
func (s *CallService) ReconcileDisconnect(userID string) {
	for _, callID := range s.calls.ParticipantCallIDs(userID) {
		updated, err := s.calls.Update(callID, userID, func(c *domain.Call) error {
			// A call already in a terminal state has notified its peer;
			// it only needs the removal below.
			if c.Status.Terminal() {
				return apperrors.ErrCallTerminal
			}
			c.Status = domain.CallEnded
			now := time.Now().UTC()
			c.EndedAt = &now
			return nil
		})
		if err == nil {
			s.pushTo(updated.Peer(userID), domain.Event{Name: domain.EvCallEnded, Data: domain.CallPayload{
				CallID: updated.ID,
				From:   userID,
				Reason: peerDisconnectedReason,
			}})
		}
		s.calls.Remove(callID)
	}
}

func (s *CallService) pushTo(userID string, event domain.Event) {
	session, ok := s.registry.Lookup(userID)
	if !ok {
		return
	}
	if !session.Sink.Push(event) {
		s.log.Warn("dropping event for slow client", "event", event.Name, "user", userID)
	}
}
