package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"lexchat/hub"
	"lexchat/moderation"
	"lexchat/observability"
	"lexchat/repositories"
	"lexchat/runtime"
	"lexchat/runtime/workers"
	"lexchat/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle and
// centralizes error reporting, so deferred cleanups always execute before
// the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	replacement, err := CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. State containers & coordinators
	registry := runtime.NewRegistry()
	callRegistry := runtime.NewCallRegistry(log)
	messageRepository := repositories.NewMessageRepository(db, log)

	moderator, err := moderation.NewModerator(config.Words(), replacement)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	chatService := services.NewChatService(log, registry, messageRepository, moderator)
	callService := services.NewCallService(log, registry, callRegistry)
	signalService := services.NewSignalService(log, registry)

	stats, err := observability.NewCollector(log, registry)
	if err != nil {
		return fmt.Errorf("stats collector setup failed: %w", err)
	}

	socketHub := hub.NewHub(log, registry, chatService, callService, signalService,
		stats, []byte(config.JWTSecret), config.ConnectionBufferSize)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervised background workers
	sup := workers.NewSupervisor(log)
	sup.Add(workers.NewMonitorWorker(log, stats, config.MetricInterval))
	go sup.Run(ctx)

	// 6. HTTP server with the WebSocket and stats endpoints
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", socketHub.ServeWS)
	mux.Handle("/stats", stats)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting realtime server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown did not finish cleanly", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
