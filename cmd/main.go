package main

import (
	"chat-relay/broadcast"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/roster"
	"chat-relay/runtime/workers"
	"chat-relay/session"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so that defers execute before the process
// exits and the wiring stays testable outside of main.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Moderation (embedded word lists -> Aho-Corasick automaton)
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	dictionary, err := moderation.LoadDictionary()
	if err != nil {
		return fmt.Errorf("loading censored words failed: %w", err)
	}
	log.Info(fmt.Sprintf("%d censored words loaded [%s]",
		len(dictionary.Words), strings.Join(dictionary.Languages, ",")))

	moderator, err := moderation.NewModerator(dictionary.Words, charReplacement, log)
	if err != nil {
		return fmt.Errorf("building moderator failed: %w", err)
	}

	// 3. Core: roster, membership, broadcast routing
	store := roster.NewStore()
	membership := roster.NewManager(store)
	router := broadcast.NewRouter(store, log)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervised background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewRosterReporter(store, config.ReportInterval, log))
	go sup.Run(ctx)

	// 6. Websocket server
	server := ws.NewServer(log, membership, router, &moderator,
		session.SystemClock{}, config.ConnectionBufferSize)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.Handle)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: mux}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting chat relay", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("Forced shutdown", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
