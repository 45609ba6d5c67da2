package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kirillkom/labor-law-assistant/internal/adapters/cli"
	"github.com/kirillkom/labor-law-assistant/internal/bootstrap"
	"github.com/kirillkom/labor-law-assistant/internal/config"
	"github.com/kirillkom/labor-law-assistant/internal/observability/logging"
)

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

	factory := func(ctx context.Context) (*cli.Services, func(), error) {
		app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "legalctl", Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		return &cli.Services{
			Retriever: app.Search,
			Assistant: app.Ask,
			Index:     app.Admin,
			Cache:     app.Cache,
			Loader:    app.Loader(),
		}, app.Close, nil
	}

	root := cli.NewRootCommand(factory)
	root.SetOut(os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
