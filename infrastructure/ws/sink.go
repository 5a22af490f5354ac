package ws

import (
	"chat-relay/domain/event"
	"context"
	"log/slog"
)

// Sink adapts a connection's outbound channel to contract.EventSink.
// The write pump on the other end serializes everything onto the socket,
// which also gives each connection FIFO ordering for its own events.
type Sink struct {
	outbound chan outboundEnvelope
	log      *slog.Logger
}

func NewSink(bufferSize int, log *slog.Logger) *Sink {
	return &Sink{outbound: make(chan outboundEnvelope, bufferSize), log: log}
}

// Consume queues the event for the write pump. A full buffer means the
// client reads too slowly; the event is dropped rather than blocking the
// dispatcher.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.outbound <- outboundEnvelope{Event: e.Name(), Data: e}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.log.Debug("Backpressure: event dropped", "event", e.Name())
		return nil
	}
}
