//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
	"time"
)

// EventSink is one client's outbound pipe.
// Consume must never block on network I/O; delivery is best-effort.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// RoomIndex is the read-only view of the roster used to resolve broadcast
// scopes. Mutation goes through the membership manager only.
type RoomIndex interface {
	MembersOf(room string) []domain.User
}

// ProfanityChecker decides whether a message may be relayed.
// Implementations are pure: the session assumes no side effects.
type ProfanityChecker interface {
	IsProfane(text string) bool
}

// Clock supplies the server-assigned timestamp on outbound messages.
type Clock interface {
	Now() time.Time
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
