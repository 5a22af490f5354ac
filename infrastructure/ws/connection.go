package ws

import (
	"chat-relay/domain"
	"chat-relay/session"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"
)

// connection owns one websocket: a read pump decoding inbound envelopes
// and driving the session, and a write pump serializing all outbound
// traffic. Splitting the pumps keeps a slow reader from blocking writes
// and keeps the socket single-writer.
type connection struct {
	id      domain.ConnID
	socket  *websocket.Conn
	sink    *Sink
	session *session.Session
	done    chan struct{}
	log     *slog.Logger
}

func (c *connection) readPump(ctx context.Context) {
	defer c.socket.Close()

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			c.log.Debug("Malformed envelope dropped", "conn", c.id, "error", err)
			continue
		}
		c.handle(ctx, env)
	}
}

// handle routes one inbound request to the session and always produces
// exactly one ack, success or error, for its seq.
func (c *connection) handle(ctx context.Context, env Envelope) {
	var err error
	switch env.Event {
	case EventJoin:
		var req JoinRequest
		if err = parse(env.Data, &req); err == nil {
			err = c.session.Join(ctx, req.DisplayName, req.Room)
		}
	case EventSendMessage:
		var req MessageRequest
		if err = parse(env.Data, &req); err == nil {
			err = c.session.SendMessage(ctx, req.Text)
		}
	case EventSendLocation:
		var req LocationRequest
		if err = parse(env.Data, &req); err == nil {
			err = c.session.SendLocation(ctx, req.Latitude, req.Longitude)
		}
	default:
		err = fmt.Errorf("unknown event %q", env.Event)
	}
	c.ack(ctx, env.Seq, err)
}

// ack queues the acknowledgement for a request. Unlike event delivery an
// ack must not be dropped, so it waits for buffer space.
func (c *connection) ack(ctx context.Context, seq uint64, err error) {
	env := outboundEnvelope{Event: EventAck, Seq: seq}
	if err != nil {
		env.Error = err.Error()
	}
	select {
	case c.sink.outbound <- env:
	case <-c.done:
	case <-ctx.Done():
	}
}

func (c *connection) writePump() {
	defer c.socket.Close()

	for {
		select {
		case env := <-c.sink.outbound:
			if err := c.socket.WriteJSON(env); err != nil {
				// Unblock the reader, then keep the channel moving until
				// the handler finishes tearing the connection down.
				c.socket.Close()
				c.drain()
				return
			}
		case <-c.done:
			_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *connection) drain() {
	for {
		select {
		case <-c.sink.outbound:
		case <-c.done:
			return
		}
	}
}
