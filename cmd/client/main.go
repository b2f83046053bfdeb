package main

import (
	"chat-relay/client"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	cfg, err := client.LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "INFO"
	}
	log := logs.GetLoggerFromString(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info(fmt.Sprintf(">>> Joining %s as %s (/quit to leave)", cfg.Room, cfg.User))
	if err := client.Run(ctx, log, cfg, os.Stdin, os.Stdout); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}
