package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jwebster45206/yoga-journey/internal/config"
	"github.com/jwebster45206/yoga-journey/internal/logger"
	"github.com/jwebster45206/yoga-journey/internal/services"
	"github.com/jwebster45206/yoga-journey/internal/services/events"
	"github.com/jwebster45206/yoga-journey/internal/services/queue"
	"github.com/jwebster45206/yoga-journey/internal/storage"
	"github.com/jwebster45206/yoga-journey/internal/telemetry"
	"github.com/jwebster45206/yoga-journey/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Info("Starting Yoga Journey Worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL,
		"story_provider", cfg.StoryProvider,
		"model_name", cfg.ModelName,
		"image_provider", cfg.ImageProvider,
		"concurrency", cfg.WorkerConcurrency)

	shutdownTracing := telemetry.Init(context.Background(), log, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: "yoga-journey-worker",
		Environment: cfg.Environment,
	})

	queueClient, err := queue.NewClient(cfg.RedisURL, log)
	if err != nil {
		log.Error("Failed to create queue client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			log.Error("Error closing queue client", "error", err)
		}
	}()
	requestQueue := queue.NewRequestQueue(queueClient)

	storageService := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := storageService.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storageService.Close(); err != nil {
			log.Error("Error closing storage connection", "error", err)
		}
	}()
	log.Info("Storage service initialized successfully")

	initCtx, initCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer initCancel()

	storyService, storyCloser, err := services.NewStoryService(initCtx, cfg, log)
	if err != nil {
		log.Error("Failed to create story service", "error", err)
		os.Exit(1)
	}
	defer func() { _ = storyCloser.Close() }()

	if err := storyService.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize story model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}
	log.Info("Story service initialized successfully", "model", cfg.ModelName)

	imageService, err := services.NewImageService(cfg)
	if err != nil {
		log.Error("Failed to create image service", "error", err)
		os.Exit(1)
	}
	if imageService == nil {
		log.Info("Scene images disabled")
	}

	broadcaster := events.NewBroadcaster(queueClient.GetRedisClient(), log)
	processor := worker.NewJourneyProcessor(storageService, storyService, imageService, requestQueue, broadcaster, log).
		WithHistoryLimit(cfg.PromptHistoryLimit)

	baseID := os.Getenv("WORKER_ID")
	workers := make([]*worker.Worker, 0, cfg.WorkerConcurrency)
	for i := 0; i < cfg.WorkerConcurrency; i++ {
		id := ""
		if baseID != "" {
			id = fmt.Sprintf("%s-%d", baseID, i)
		}
		workers = append(workers, worker.New(requestQueue, processor, queueClient.GetRedisClient(), log, id))
	}

	var g errgroup.Group
	g.SetLimit(cfg.WorkerConcurrency)
	for _, w := range workers {
		g.Go(w.Start)
	}
	log.Info("Workers started, waiting for requests...", "count", len(workers))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Worker shutdown signal received")

	for _, w := range workers {
		w.Stop()
	}
	if err := g.Wait(); err != nil {
		log.Error("Worker error", "error", err)
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Error("Error flushing traces", "error", err)
	}

	log.Info("Worker exited")
}
