package ws

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Inbound event names. Acks are correlated to requests through Seq, the
// websocket equivalent of a socket.io callback.
const (
	EventJoin         = "join"
	EventSendMessage  = "sendMessage"
	EventSendLocation = "sendLocation"
	EventAck          = "ack"
)

// Envelope is the inbound wire frame: {"event":"join","seq":1,"data":{...}}.
type Envelope struct {
	Event string          `json:"event"`
	Seq   uint64          `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outboundEnvelope carries either a pushed event or an ack for a request.
type outboundEnvelope struct {
	Event string `json:"event"`
	Seq   uint64 `json:"seq,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type JoinRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
	Room        string `json:"room" validate:"required"`
}

type MessageRequest struct {
	Text string `json:"text"`
}

type LocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

var validate = validator.New()

// parse decodes a request payload and applies its validation tags.
func parse(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return validate.Struct(dst)
}
