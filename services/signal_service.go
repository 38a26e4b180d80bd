package services

import (
	"log/slog"

	"lexchat/contract"
	"lexchat/domain"
)

// SignalService relays session-negotiation payloads between two peers.
// Payloads are opaque: nothing is validated and nothing is buffered. An
// offline target is a silent no-op.
type SignalService struct {
	log      *slog.Logger
	registry contract.IRegistry
}

func NewSignalService(log *slog.Logger, registry contract.IRegistry) *SignalService {
	return &SignalService{log: log, registry: registry}
}

func (s *SignalService) RelayOffer(self domain.Identity, payload domain.SignalPayload) {
	s.relay(self, domain.EvWebRTCOffer, payload)
}

func (s *SignalService) RelayAnswer(self domain.Identity, payload domain.SignalPayload) {
	s.relay(self, domain.EvWebRTCAnswer, payload)
}

func (s *SignalService) RelayCandidate(self domain.Identity, payload domain.SignalPayload) {
	s.relay(self, domain.EvWebRTCCandidate, payload)
}

func (s *SignalService) relay(self domain.Identity, name string, payload domain.SignalPayload) {
	target, online := s.registry.Lookup(payload.To)
	if !online {
		s.log.Debug("signal target offline, dropping", "event", name, "to", payload.To)
		return
	}
	payload.From = self.ID
	payload.To = ""
	target.Sink.Push(domain.Event{Name: name, Data: payload})
}
