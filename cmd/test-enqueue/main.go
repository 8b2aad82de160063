package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/jwebster45206/yoga-journey/internal/services/events"
	"github.com/jwebster45206/yoga-journey/internal/services/queue"
	queuePkg "github.com/jwebster45206/yoga-journey/pkg/queue"
)

func main() {
	redisURL := flag.String("redis", "localhost:6379", "Redis address or redis:// URL")
	journeyID := flag.String("journey", "", "journey id to act on (required)")
	action := flag.String("action", "I unroll my mat and take a deep breath.", "player action")
	opening := flag.Bool("opening", false, "enqueue an opening request instead of an action")
	flag.Parse()

	id, err := uuid.Parse(*journeyID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: %s -journey <uuid> [-action text | -opening]\n", os.Args[0])
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client, err := queue.NewClient(*redisURL, logger)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer client.Close()

	ctx := context.Background()
	rq := queue.NewRequestQueue(client)

	req := queuePkg.NewRequest(queuePkg.RequestTypeAction, id)
	req.Action = *action
	if *opening {
		req = queuePkg.NewRequest(queuePkg.RequestTypeOpening, id)
	}

	if err := rq.Enqueue(ctx, req); err != nil {
		log.Fatal("Failed to enqueue request: ", err)
	}
	if err := events.NewBroadcaster(client.GetRedisClient(), logger).PublishRequestQueued(ctx, id, req.RequestID, string(req.Type)); err != nil {
		log.Println("Failed to publish queued event:", err)
	}
	fmt.Printf("✅ Enqueued %s request: %s\n", req.Type, req.RequestID)

	depth, err := rq.Depth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth: ", err)
	}
	fmt.Printf("📊 Queue depth: %d\n", depth)
}
