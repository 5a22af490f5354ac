package workers

import (
	"chat-relay/roster"
	"context"
	"log/slog"
	"time"
)

// RosterReporter periodically logs how many rooms are alive and how many
// users occupy them. Purely observational; it never mutates the roster.
type RosterReporter struct {
	store    *roster.Store
	interval time.Duration
	log      *slog.Logger
}

func NewRosterReporter(store *roster.Store, interval time.Duration, log *slog.Logger) *RosterReporter {
	return &RosterReporter{store: store, interval: interval, log: log}
}

func (w *RosterReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case <-ticker.C:
			rooms, users := w.store.Stats()
			w.log.Info("Roster status", "rooms", rooms, "users", users)
		}
	}
}
