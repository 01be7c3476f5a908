package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jwebster45206/story-turns/internal/config"
	"github.com/jwebster45206/story-turns/internal/handlers"
	"github.com/jwebster45206/story-turns/internal/logger"
	"github.com/jwebster45206/story-turns/internal/middleware"
	"github.com/jwebster45206/story-turns/internal/session"
	"github.com/jwebster45206/story-turns/internal/storage"
	"github.com/jwebster45206/story-turns/pkg/narrative"
	"github.com/jwebster45206/story-turns/pkg/story"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.Setup(cfg)
	if envErr != nil {
		log.Debug("No .env file loaded", "error", envErr)
	}

	log.Info("Starting Story Turns API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir,
		"start_knot", cfg.StartKnot)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.TranscriptTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx, 30, 2*time.Second); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	sessions := session.NewManager(store, story.Factory, log,
		session.WithStartKnot(cfg.StartKnot),
		session.WithIdleTimeout(cfg.SessionIdle),
		session.WithControllerOptions(narrative.WithMaxContinues(cfg.MaxContinues)))

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sessions.RunSweeper(sweepCtx, time.Minute)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, sessions, log)
	mux.Handle("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	storyHandler := handlers.NewStoryHandler(log, store)
	mux.Handle("/v1/stories", storyHandler)

	sessionHandler := handlers.NewSessionHandler(sessions, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")
	stopSweeper()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
