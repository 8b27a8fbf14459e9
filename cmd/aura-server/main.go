package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aura-chat-backend/internal/config"
	"aura-chat-backend/internal/logging"
	"aura-chat-backend/internal/persona"
	"aura-chat-backend/internal/server"
)

func main() {
	cfg := config.Load()
	logger, err := logging.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		logger.Warn("log file unavailable, logging to stderr", slog.Any("error", err))
	}
	cfg.Warn(logger)

	p, fromFile, err := persona.Load(cfg.PersonaFile)
	if err != nil {
		logger.Error("failed to load persona", slog.Any("error", err))
		os.Exit(1)
	}
	if fromFile {
		logger.Info("persona loaded", slog.String("file", cfg.PersonaFile))
	}

	s, err := server.NewServer(cfg, p, logger)
	if err != nil {
		logger.Error("failed to create server", slog.Any("error", err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Leaves room for the 20s upstream call.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", slog.Any("error", err))
		}
	}()

	logger.Info("AURA server listening", slog.String("addr", srv.Addr), slog.String("model", cfg.GeminiModel))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	<-drained
}
