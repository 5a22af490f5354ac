// Package broadcast resolves delivery scopes to live connections and fans
// events out to their sinks.
//
// Delivery is best-effort: recipient sets are resolved at dispatch time,
// a recipient that detached since is a silent no-op, and the router never
// waits for delivery confirmation. Acknowledgements, where a request asks
// for one, are the session's concern.
package broadcast

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"sync"
)

type scopeKind int

const (
	scopeSelf scopeKind = iota
	scopeRoom
	scopeRoomExceptSelf
)

// Scope is the recipient-selection rule for a dispatch.
type Scope struct {
	kind   scopeKind
	room   string
	origin domain.ConnID
}

// Self targets the originating connection only.
func Self(origin domain.ConnID) Scope {
	return Scope{kind: scopeSelf, origin: origin}
}

// Room targets every connection currently in room, originator included.
func Room(room string) Scope {
	return Scope{kind: scopeRoom, room: room}
}

// RoomExceptSelf targets every connection currently in room except the
// originator, even when the originator is the only member left.
func RoomExceptSelf(room string, origin domain.ConnID) Scope {
	return Scope{kind: scopeRoomExceptSelf, room: room, origin: origin}
}

// Router tracks the sink attached to each live connection and dispatches
// events to the connections a scope resolves to.
type Router struct {
	mu    sync.RWMutex
	index contract.RoomIndex
	sinks map[domain.ConnID]contract.EventSink
	log   *slog.Logger
}

func NewRouter(index contract.RoomIndex, log *slog.Logger) *Router {
	return &Router{
		index: index,
		sinks: make(map[domain.ConnID]contract.EventSink),
		log:   log,
	}
}

// Attach registers a connection's sink. Called by the transport on connect,
// before the connection can join a room.
func (r *Router) Attach(id domain.ConnID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[id] = sink
}

// Detach forgets a connection's sink. Dispatches resolving this connection
// afterwards become no-ops.
func (r *Router) Detach(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, id)
}

// Dispatch resolves the scope and hands the event to each recipient's sink.
func (r *Router) Dispatch(ctx context.Context, scope Scope, e event.DomainEvent) {
	for _, sink := range r.resolve(scope) {
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Debug("Sink rejected event", "event", e.Name(), "error", err)
		}
	}
}

// resolve performs a two-step lookup for room scopes: room members come
// from the roster index, then each member's connection is mapped to its
// sink. A member whose sink is already gone is skipped.
func (r *Router) resolve(scope Scope) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if scope.kind == scopeSelf {
		if sink, ok := r.sinks[scope.origin]; ok {
			return []contract.EventSink{sink}
		}
		return nil
	}

	var sinks []contract.EventSink
	for _, member := range r.index.MembersOf(scope.room) {
		if scope.kind == scopeRoomExceptSelf && member.ID == scope.origin {
			continue
		}
		if sink, ok := r.sinks[member.ID]; ok {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}
