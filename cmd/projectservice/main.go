package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhanuprys/infrantery-backend-go/internal/config"
	"github.com/dhanuprys/infrantery-backend-go/internal/server"
	"github.com/dhanuprys/infrantery-backend-go/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.Environment)
	logger.Info().
		Str("log_level", cfg.LogLevel).
		Str("environment", cfg.Environment).
		Msg("project service logger initialized")

	srv, err := server.NewProjectServer(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize project service")
	}

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatal().Err(err).Msg("project service stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("project service received termination signal")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("project service shutdown error")
	}
}
