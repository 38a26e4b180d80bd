// Package hub is the WebSocket boundary of the realtime layer: it gates
// connections behind the credential verifier, decodes inbound frames into
// typed payloads and routes them to the coordinators.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"lexchat/auth"
	"lexchat/contract"
	"lexchat/domain"
	apperrors "lexchat/errors"
	"lexchat/observability"
	"lexchat/services"
)

type Hub struct {
	log      *slog.Logger
	registry contract.IRegistry
	chat     *services.ChatService
	calls    *services.CallService
	signals  *services.SignalService
	stats    *observability.Collector
	secret   []byte
	bufSize  int
	upgrader websocket.Upgrader
}

func NewHub(log *slog.Logger, registry contract.IRegistry, chat *services.ChatService,
	calls *services.CallService, signals *services.SignalService,
	stats *observability.Collector, secret []byte, bufferSize int) *Hub {
	return &Hub{
		log:      log,
		registry: registry,
		chat:     chat,
		calls:    calls,
		signals:  signals,
		stats:    stats,
		secret:   secret,
		bufSize:  bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The legacy deployment served any origin; CORS is enforced
			// at the edge.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeWS authenticates and upgrades one connection. The bearer token is
// supplied once at establishment time, via the token query parameter or
// an Authorization header; a bad credential refuses the connection before
// the upgrade, with no session created.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.VerifyToken(h.secret, bearerToken(r))
	if err != nil {
		h.stats.AuthRejected()
		http.Error(w, "authentication error", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "error", err)
		return
	}

	client := newClient(h, conn, identity, h.bufSize)
	client.session = h.registry.Register(identity, client)
	h.stats.ConnOpened()
	h.log.Info("user connected", "user_id", identity.ID, "username", identity.Username)
	h.broadcastPresence()

	go client.writePump()
	go client.readPump()
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// disconnect runs the reconciler for a closing connection: force-end the
// user's calls, drop the session and rebroadcast presence. A session that
// was already replaced by a newer connection is left alone.
func (h *Hub) disconnect(c *Client) {
	h.stats.ConnClosed()
	current, ok := h.registry.Lookup(c.identity.ID)
	if ok && current == c.session {
		h.calls.ReconcileDisconnect(c.identity.ID)
	}
	if h.registry.Unregister(c.identity.ID, c.session) {
		h.log.Info("user disconnected", "user_id", c.identity.ID, "username", c.identity.Username)
		h.broadcastPresence()
	}
}

// broadcastPresence pushes the full online set to every connection. The
// protocol has no incremental diff: each join/leave resends everything.
func (h *Hub) broadcastPresence() {
	event := domain.Event{Name: domain.EvUsersOnline, Data: h.registry.Snapshot()}
	for _, session := range h.registry.All() {
		session.Sink.Push(event)
	}
}

// dispatch routes one decoded frame. Handler failures are reported to the
// originating connection only, as named error events; the connection
// always stays open.
func (h *Hub) dispatch(c *Client, envelope Envelope) {
	h.stats.EventReceived()
	ctx := context.Background()

	switch envelope.Event {
	case evJoinChat:
		var p joinChatPayload
		if err := decodePayload(envelope.Data, &p); err != nil {
			c.log.Warn("invalid join_chat payload", "error", err)
			return
		}
		h.chat.JoinChat(c.identity, p.RecipientID)

	case evSendMessage:
		var p sendMessagePayload
		if err := decodePayload(envelope.Data, &p); err != nil {
			c.Push(errorEvent(domain.EvMessageError, apperrors.ErrInvalidPayload))
			return
		}
		if _, err := h.chat.SendMessage(ctx, c.identity, p.RecipientID, p.Message, domain.MessageKind(p.MessageType)); err != nil {
			c.Push(errorEvent(domain.EvMessageError, errors.New("Failed to send message")))
		}

	case evMarkRead:
		var p markReadPayload
		if err := decodePayload(envelope.Data, &p); err != nil {
			c.log.Warn("invalid mark_messages_read payload", "error", err)
			return
		}
		if err := h.chat.MarkRead(ctx, c.identity, p.ChatRoom); err != nil {
			c.log.Error("marking messages read failed", "room", p.ChatRoom, "error", err)
		}

	case evTyping:
		var p typingPayload
		if err := decodePayload(envelope.Data, &p); err != nil {
			c.log.Warn("invalid typing payload", "error", err)
			return
		}
		h.chat.Typing(c.identity, p.RecipientID, p.IsTyping)

	case evGetHistory:
		var p historyPayload
		if err := decodePayload(envelope.Data, &p); err != nil {
			c.Push(errorEvent(domain.EvChatHistoryError, apperrors.ErrInvalidPayload))
			return
		}
		history, err := h.chat.GetHistory(ctx, c.identity, p.RecipientID, p.Page, p.Limit)
		if err != nil {
			c.Push(errorEvent(domain.EvChatHistoryError, errors.New("Failed to fetch messages")))
			return
		}
		c.Push(domain.Event{Name: domain.EvChatHistory, Data: history})

	case evInitiateCall:
		var p initiateCallPayload
		if err := decodePayload(envelope.Data, &p); err != nil {
			c.Push(errorEvent(domain.EvCallError, apperrors.ErrInvalidPayload))
			return
		}
		_, err := h.calls.Initiate(c.identity, p.CallID, p.RecipientID, p.Topic)
		h.callOp(c, err)

	case evCallRequest:
		var p initiateCallPayload
		if err := decodePayload(envelope.Data, &p); err != nil {
			c.Push(errorEvent(domain.EvCallError, apperrors.ErrInvalidPayload))
			return
		}
		h.callOp(c, h.calls.Request(c.identity, p.CallID))

	case evAcceptCall:
		h.callIDOp(c, envelope, h.calls.Accept)

	case evDeclineCall:
		h.callIDOp(c, envelope, h.calls.Decline)

	case evEndCall:
		h.callIDOp(c, envelope, h.calls.End)

	case evSpeakerChange:
		var p speakerChangePayload
		if err := decodePayload(envelope.Data, &p); err != nil {
			c.Push(errorEvent(domain.EvCallError, apperrors.ErrInvalidPayload))
			return
		}
		h.callOp(c, h.calls.SpeakerChange(c.identity, p.CallID, p.SpeakerID))

	case evWebRTCOffer, evWebRTCAnswer, evWebRTCCandidate:
		var p domain.SignalPayload
		if err := decodePayload(envelope.Data, &p); err != nil || p.To == "" {
			return
		}
		switch envelope.Event {
		case evWebRTCOffer:
			h.signals.RelayOffer(c.identity, p)
		case evWebRTCAnswer:
			h.signals.RelayAnswer(c.identity, p)
		default:
			h.signals.RelayCandidate(c.identity, p)
		}

	default:
		c.log.Warn("unknown event", "event", envelope.Event)
	}
}

// callIDOp decodes a bare {callId} payload and reports the transition's
// outcome.
func (h *Hub) callIDOp(c *Client, envelope Envelope, op func(domain.Identity, string) error) {
	var p callIDPayload
	if err := decodePayload(envelope.Data, &p); err != nil {
		c.Push(errorEvent(domain.EvCallError, apperrors.ErrInvalidPayload))
		return
	}
	h.callOp(c, op(c.identity, p.CallID))
}

func (h *Hub) callOp(c *Client, err error) {
	if err != nil {
		c.Push(errorEvent(domain.EvCallError, err))
	}
}

func errorEvent(name string, err error) domain.Event {
	return domain.Event{Name: name, Data: domain.ErrorPayload{Error: err.Error()}}
}
