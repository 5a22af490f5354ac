// Package ws is the websocket transport adapter: it upgrades HTTP
// connections, assigns each one a stable connection identity, translates
// inbound envelopes into session calls and session results into acks, and
// pushes broadcast events back out.
package ws

import (
	"chat-relay/broadcast"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/roster"
	"chat-relay/session"
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Server struct {
	log        *slog.Logger
	membership *roster.Manager
	router     *broadcast.Router
	profanity  contract.ProfanityChecker
	clock      contract.Clock
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewServer(log *slog.Logger, membership *roster.Manager, router *broadcast.Router,
	profanity contract.ProfanityChecker, clock contract.Clock, bufferSize int) *Server {
	return &Server{
		log:        log,
		membership: membership,
		router:     router,
		profanity:  profanity,
		clock:      clock,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Validate the origin here when exposed publicly.
			},
		},
	}
}

// Handle upgrades the request and blocks until the client disconnects.
// Cleanup detaches the sink before running the disconnect transition, so
// the departing connection never appears in a recipient set.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("Upgrade failed", "error", err)
		return
	}

	id := domain.ConnID(uuid.NewString())
	sink := NewSink(s.bufferSize, s.log)
	sess := session.New(id, s.membership, s.router, s.profanity, s.clock, s.log)
	s.router.Attach(id, sink)
	s.log.Info("New websocket connection", "conn", id)

	c := &connection{
		id:      id,
		socket:  socket,
		sink:    sink,
		session: sess,
		done:    make(chan struct{}),
		log:     s.log,
	}
	go c.writePump()
	c.readPump(context.Background())

	s.router.Detach(id)
	sess.Disconnect(context.Background())
	close(c.done)
	s.log.Info("Websocket connection closed", "conn", id)
}
