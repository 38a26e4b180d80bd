package hub

import (
	"log/slog"

	"github.com/gorilla/websocket"

	"lexchat/contract"
	"lexchat/domain"
)

// Client mediates between one WebSocket connection and the coordinators.
// It is the connection's EventSink: outbound events go through a buffered
// channel drained by writePump, and Push never blocks.
type Client struct {
	identity domain.Identity
	conn     *websocket.Conn
	send     chan domain.Event
	done     chan struct{}
	session  *contract.Session
	hub      *Hub
	log      *slog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, identity domain.Identity, bufferSize int) *Client {
	return &Client{
		identity: identity,
		conn:     conn,
		send:     make(chan domain.Event, bufferSize),
		done:     make(chan struct{}),
		hub:      hub,
		log:      hub.log.With("user", identity.Username),
	}
}

// Push implements contract.EventSink. A full buffer drops the event for
// this client rather than stalling the sender's handler. The send channel
// is never closed, so a Push racing a disconnect stays safe; writePump is
// released through done instead.
func (c *Client) Push(e domain.Event) bool {
	select {
	case c.send <- e:
		return true
	default:
		return false
	}
}

// readPump is the connection's single event-processing stream: events are
// dispatched sequentially, so one sender's messages are never reordered
// relative to each other.
func (c *Client) readPump() {
	defer func() {
		c.hub.disconnect(c)
		close(c.done)
		_ = c.conn.Close()
	}()

	for {
		var envelope Envelope
		if err := c.conn.ReadJSON(&envelope); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read error", "error", err)
			}
			return
		}
		c.hub.dispatch(c, envelope)
	}
}

// writePump drains the send channel onto the WebSocket until the
// connection goes away.
func (c *Client) writePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case event := <-c.send:
			if err := c.conn.WriteJSON(event); err != nil {
				c.log.Warn("write error", "error", err)
				return
			}
		case <-c.done:
			return
		}
	}
}
