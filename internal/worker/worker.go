package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/yoga-journey/internal/services/queue"
	queuePkg "github.com/jwebster45206/yoga-journey/pkg/queue"
)

const (
	workerTimeout = 5 * time.Second

	// lockTTL covers the slowest story or image call plus a save.
	lockTTL = 2 * time.Minute
)

var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Processor resolves one dequeued request.
type Processor interface {
	Process(ctx context.Context, req *queuePkg.Request) error
}

// Worker processes requests from the journey request queue
type Worker struct {
	id          string
	queue       *queue.RequestQueue
	processor   Processor
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(requestQueue *queue.RequestQueue, processor Processor, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       requestQueue,
		processor:   processor,
		redisClient: redisClient,
		log:         log.With("worker_id", workerID),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ID returns the worker's lock owner id.
func (w *Worker) ID() string {
	return w.id
}

// Start processes requests until Stop is called
func (w *Worker) Start() error {
	w.log.Info("Worker starting")

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down")
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err)
				// Keep going; a failed request has already been reported to the player.
				select {
				case <-w.ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested")
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	ctx, cancel := context.WithTimeout(w.ctx, workerTimeout+time.Second)
	req, err := w.queue.BlockingDequeue(ctx, workerTimeout)
	cancel()
	if err != nil {
		if w.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		return nil
	}

	log := w.log.With("request_id", req.RequestID, "type", req.Type, "journey_id", req.JourneyID.String())
	log.Info("Received request from queue")

	locked, err := w.acquireJourneyLock(req.JourneyID)
	if err != nil {
		return fmt.Errorf("failed to acquire journey lock: %w", err)
	}
	if !locked {
		// Another worker holds this journey; put the request back at the end.
		log.Info("Journey already locked, re-queueing request")
		if err := w.queue.Enqueue(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}
	defer w.releaseJourneyLock(req.JourneyID)

	start := time.Now()
	if err := w.processor.Process(w.ctx, req); err != nil {
		return fmt.Errorf("request %s failed: %w", req.RequestID, err)
	}
	log.Info("Request processed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func lockKey(journeyID uuid.UUID) string {
	return "journey-lock:" + journeyID.String()
}

// acquireJourneyLock returns true if the lock was acquired, false if another
// worker holds it
func (w *Worker) acquireJourneyLock(journeyID uuid.UUID) (bool, error) {
	return w.redisClient.SetNX(w.ctx, lockKey(journeyID), w.id, lockTTL).Result()
}

// releaseJourneyLock deletes the lock only if this worker owns it
func (w *Worker) releaseJourneyLock(journeyID uuid.UUID) {
	ctx := context.WithoutCancel(w.ctx)
	if err := releaseLockScript.Run(ctx, w.redisClient, []string{lockKey(journeyID)}, w.id).Err(); err != nil {
		w.log.Error("Failed to release journey lock", "error", err, "journey_id", journeyID.String())
	}
}
