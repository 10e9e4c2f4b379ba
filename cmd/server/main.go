package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rundown-api/rundown/internal/config"
	"github.com/rundown-api/rundown/internal/httpapi"
	"github.com/rundown-api/rundown/internal/providers"
	"github.com/rundown-api/rundown/internal/repository"
	"github.com/rundown-api/rundown/internal/server"
	"github.com/rundown-api/rundown/internal/service"
	"github.com/rundown-api/rundown/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Debug(".env file not loaded", slog.Any("error", err))
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.RunMigrations(ctx, db); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	llm := providers.NewOpenAIClient(cfg.OpenAI)
	meetings := repository.NewMeetingRepository(db)
	svc := service.NewMeetingService(meetings, llm, llm, logger)
	handler := httpapi.NewRouter(svc, logger, cfg.CORSOrigins)
	srv := server.New(cfg.HTTPPort, cfg.ShutdownTimeout, handler, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}
