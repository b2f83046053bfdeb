package main

import (
	"chat-relay/contract"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component, serves until a signal arrives and then shuts down in order.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Message store
	store, closeStore, err := openStore(config, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Relay core
	registry := runtime.NewRegistry()
	dispatcher := runtime.NewDispatcher(log, registry)
	chatService := services.NewChatService(log, registry, store, dispatcher, runtime.NewRoomLocks())

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervised background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewStatsWorker(log, chatService.Stats, config.StatsInterval))
	supervisorDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervisorDone)
	}()

	// 6. HTTP Server Setup
	server := &http.Server{
		Addr: config.Address(),
		Handler: ws.NewHandler(log, chatService, ws.Options{
			Connection:     config.WebsocketOptions(),
			AllowedOrigins: config.Origins(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", server.Addr, "store", config.StoreBackend, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		sup.Stop()
		<-supervisorDone
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	<-supervisorDone
	log.Info("Program stopped cleanly")
	return nil
}

func openStore(config internal.Config, log *slog.Logger) (contract.IMessageStore, func(), error) {
	switch config.StoreBackend {
	case internal.StoreBadger:
		db, err := repositories.OpenInMemoryBadger()
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		return repositories.NewBadgerMessageStore(db, log), func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}, nil
	default:
		return repositories.NewMemoryMessageStore(log), func() {}, nil
	}
}
