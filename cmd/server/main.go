package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/XiaoYing/filemanager/internal/infrastructure/config"
	"github.com/XiaoYing/filemanager/internal/infrastructure/logging"
	"github.com/XiaoYing/filemanager/internal/server"
)

func main() {
	port := flag.String("port", "", "override listen port")
	backendURL := flag.String("backend", "", "override file API base URL")
	stateDir := flag.String("state", "", "override state directory")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *backendURL != "" {
		cfg.Backend.BaseURL = *backendURL
	}
	if *stateDir != "" {
		cfg.State.Dir = *stateDir
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	srv, err := server.New(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
