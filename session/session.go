// Package session drives one connection's lifecycle: connect, join, relay,
// disconnect. It orchestrates the membership manager and the broadcast
// router, and owns the acknowledgement semantics: every Join, SendMessage
// and SendLocation call yields exactly one result, nil or a single error.
package session

import (
	"chat-relay/broadcast"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/roster"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

type State int

const (
	Connected State = iota // no user yet
	Joined
	Closed
)

const welcomeText = "Welcome!"

// Session is the state machine of a single connection.
// Its methods are safe for concurrent use, though the transport normally
// drives a session from one read loop.
type Session struct {
	mu         sync.Mutex
	id         domain.ConnID
	state      State
	user       domain.User
	membership *roster.Manager
	router     *broadcast.Router
	profanity  contract.ProfanityChecker
	clock      contract.Clock
	log        *slog.Logger
}

func New(id domain.ConnID, membership *roster.Manager, router *broadcast.Router,
	profanity contract.ProfanityChecker, clock contract.Clock, log *slog.Logger) *Session {
	return &Session{
		id:         id,
		state:      Connected,
		membership: membership,
		router:     router,
		profanity:  profanity,
		clock:      clock,
		log:        log,
	}
}

// Join moves the session from Connected to Joined. On validation failure
// the state is unchanged and nothing is broadcast; the error is the ack.
// On success the new member gets a welcome, the rest of the room a notice,
// and the whole room a fresh roster snapshot.
func (s *Session) Join(ctx context.Context, rawName, rawRoom string) error {
	s.mu.Lock()
	if s.state != Connected {
		s.mu.Unlock()
		return errors.ErrAlreadyJoined
	}
	user, err := s.membership.Join(s.id, rawName, rawRoom)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.user = user
	s.state = Joined
	s.mu.Unlock()

	// Broadcasts run outside the session lock: no dispatch while a mutex
	// is held.
	now := s.clock.Now()
	s.router.Dispatch(ctx, broadcast.Self(s.id), s.notice(welcomeText, now))
	s.router.Dispatch(ctx, broadcast.RoomExceptSelf(user.Room, s.id),
		s.notice(fmt.Sprintf("%s has joined!", user.DisplayName), now))
	s.router.Dispatch(ctx, broadcast.Room(user.Room), s.roomData(user.Room))

	s.log.Info("User joined", "user", user.DisplayName, "room", user.Room)
	return nil
}

// SendMessage relays chat text to the sender's room, tagged with the
// sender's display name and a server-assigned timestamp. Profane content
// is rejected before any broadcast.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	user, err := s.currentUser()
	if err != nil {
		return err
	}
	if s.profanity.IsProfane(text) {
		info := whatlanggo.Detect(text)
		s.log.Warn("Message rejected",
			"sender", user.DisplayName,
			"room", user.Room,
			"lang", info.Lang.Iso6391())
		return errors.ErrProfane
	}
	s.router.Dispatch(ctx, broadcast.Room(user.Room), event.Message{
		ID:        uuid.New(),
		Sender:    user.DisplayName,
		Text:      text,
		CreatedAt: s.clock.Now(),
	})
	return nil
}

// SendLocation relays a map link built from the sender's coordinates.
func (s *Session) SendLocation(ctx context.Context, latitude, longitude float64) error {
	user, err := s.currentUser()
	if err != nil {
		return err
	}
	s.router.Dispatch(ctx, broadcast.Room(user.Room), event.LocationMessage{
		ID:        uuid.New(),
		Sender:    user.DisplayName,
		URL:       fmt.Sprintf("https://google.com/maps?q=%v,%v", latitude, longitude),
		CreatedAt: s.clock.Now(),
	})
	return nil
}

// Disconnect closes the session. A connection that never joined produces
// no broadcast. For a joined connection the old room is captured before
// removal for targeting, while the roomData payload reflects membership
// after removal.
func (s *Session) Disconnect(ctx context.Context) {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = Closed
	s.mu.Unlock()

	if prev != Joined {
		return
	}
	user, err := s.membership.Leave(s.id)
	if err != nil {
		// Already removed elsewhere: nothing to announce.
		return
	}
	s.router.Dispatch(ctx, broadcast.Room(user.Room),
		s.notice(fmt.Sprintf("%s has left!", user.DisplayName), s.clock.Now()))
	s.router.Dispatch(ctx, broadcast.Room(user.Room), s.roomData(user.Room))

	s.log.Info("User left", "user", user.DisplayName, "room", user.Room)
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) currentUser() (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Joined {
		return domain.User{}, errors.ErrNotJoined
	}
	return s.user, nil
}

func (s *Session) notice(text string, at time.Time) event.Message {
	return event.Message{
		ID:        uuid.New(),
		Sender:    domain.AdminSender,
		Text:      text,
		CreatedAt: at,
	}
}

func (s *Session) roomData(room string) event.RoomData {
	return event.RoomData{Room: room, Users: s.membership.UsersIn(room)}
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
