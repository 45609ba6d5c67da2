package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpadapter "github.com/kirillkom/labor-law-assistant/internal/adapters/mcp"
	"github.com/kirillkom/labor-law-assistant/internal/bootstrap"
	"github.com/kirillkom/labor-law-assistant/internal/config"
	"github.com/kirillkom/labor-law-assistant/internal/observability/logging"
)

// stdout carries the protocol, so logs go to stderr.
func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.NATSEnabled = false
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "legal-mcp", Logger: logger})
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server, err := mcpadapter.NewServer(mcpadapter.Ports{
		Retriever: app.Search,
		Assistant: app.Ask,
		Index:     app.Admin,
	}, logger)
	if err != nil {
		logger.Error("mcp_server_error", "error", err)
		os.Exit(1)
	}

	logger.Info("mcp_serving_stdio", "version", mcpadapter.Version)
	if err := server.Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		logger.Error("mcp_server_stopped", "error", err)
		os.Exit(1)
	}
}
