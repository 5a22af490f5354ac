// Package event defines the outbound events a session emits to clients.
// Events are immutable once created.
package event

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is anything the relay pushes to clients. Name is the
// wire-level event name the transport puts in its envelope.
type DomainEvent interface {
	Name() string
}

// Message carries chat text or a system notice (Sender = "Admin").
type Message struct {
	ID        uuid.UUID `json:"id"`
	Sender    string    `json:"senderName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Message) Name() string { return "message" }

// LocationMessage carries a map link built from a sender's coordinates.
type LocationMessage struct {
	ID        uuid.UUID `json:"id"`
	Sender    string    `json:"senderName"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

func (LocationMessage) Name() string { return "locationMessage" }

type RoomUser struct {
	DisplayName string `json:"displayName"`
}

// RoomData is the roster snapshot broadcast to a whole room after
// every membership change.
type RoomData struct {
	Room  string     `json:"room"`
	Users []RoomUser `json:"users"`
}

func (RoomData) Name() string { return "roomData" }
