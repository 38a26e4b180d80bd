package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"lexchat/domain"
)

func TestSignalService_Relays_Verbatim_With_Sender(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	env.connect("alice", "Alice")
	bobSink := env.connect("bob", "Bob")

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0..."}`)
	env.signals.RelayOffer(alice, domain.SignalPayload{To: "bob", CallID: "c1", Offer: offer})

	offers := bobSink.named(domain.EvWebRTCOffer)
	req.Len(offers, 1)
	payload := offers[0].Data.(domain.SignalPayload)
	req.Equal("alice", payload.From)
	req.Empty(payload.To)
	req.Equal("c1", payload.CallID)
	req.JSONEq(string(offer), string(payload.Offer))
}

func TestSignalService_Offline_Target_Is_Silent_NoOp(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	env.connect("alice", "Alice")

	// Must not panic, must not buffer.
	env.signals.RelayAnswer(alice, domain.SignalPayload{To: "ghost", CallID: "c1"})
	env.signals.RelayCandidate(alice, domain.SignalPayload{To: "ghost", CallID: "c1"})

	session, ok := env.registry.Lookup("alice")
	req.True(ok)
	req.Empty(session.Sink.(*recordSink).events)
}
