package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/story-graph/internal/config"
	"github.com/jwebster45206/story-graph/internal/handlers"
	"github.com/jwebster45206/story-graph/internal/logger"
	"github.com/jwebster45206/story-graph/internal/middleware"
	"github.com/jwebster45206/story-graph/internal/services"
	"github.com/jwebster45206/story-graph/internal/services/events"
	"github.com/jwebster45206/story-graph/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Story Graph API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.SessionTTL, log)
	if err != nil {
		log.Error("Failed to configure storage", "error", err)
		os.Exit(1)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	broadcaster := events.NewBroadcaster(store.Client(), log)
	sessions := services.NewSessionService(store, broadcaster, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))

	storyHandler := handlers.NewStoryHandler(log, store)
	mux.Handle("/v1/stories", storyHandler)
	mux.Handle("/v1/stories/", storyHandler)

	sessionHandler := handlers.NewSessionHandler(sessions, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	mux.Handle("/v1/events/sessions/", handlers.NewEventsHandler(store.Client(), log))
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the event stream holds its response open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

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
