package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/yoga-journey/internal/config"
	"github.com/jwebster45206/yoga-journey/internal/handlers"
	"github.com/jwebster45206/yoga-journey/internal/logger"
	"github.com/jwebster45206/yoga-journey/internal/middleware"
	"github.com/jwebster45206/yoga-journey/internal/services/events"
	"github.com/jwebster45206/yoga-journey/internal/services/queue"
	"github.com/jwebster45206/yoga-journey/internal/storage"
	"github.com/jwebster45206/yoga-journey/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Yoga Journey API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"story_provider", cfg.StoryProvider,
		"image_provider", cfg.ImageProvider)

	shutdownTracing := telemetry.Init(context.Background(), log, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: "yoga-journey-api",
		Environment: cfg.Environment,
	})

	storageService := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := storageService.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	// Load the catalog now so a bad products file fails startup.
	if _, err := storageService.ListProducts(storageCtx); err != nil {
		log.Error("Failed to load product catalog", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	requestQueue := queue.NewRequestQueue(queueClient)
	broadcaster := events.NewBroadcaster(queueClient.GetRedisClient(), log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(storageService, requestQueue, cfg.StoryProvider, cfg.ImageProvider, log))

	journeyHandler := handlers.NewJourneyHandler(storageService, requestQueue, broadcaster, log)
	mux.Handle("/v1/journeys", journeyHandler)
	mux.Handle("/v1/journeys/", journeyHandler)

	productsHandler := handlers.NewProductsHandler(storageService, log)
	mux.Handle("/v1/products", productsHandler)
	mux.Handle("/v1/products/", productsHandler)

	mux.Handle("/v1/events/", handlers.NewEventsHandler(queueClient.GetRedisClient(), log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.LoggerWith(log, mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the events endpoint holds connections open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	if err := queueClient.Close(); err != nil {
		log.Error("Error closing queue client", "error", err)
	}
	if err := storageService.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Error flushing traces", "error", err)
	}

	log.Info("Server exited")
}
