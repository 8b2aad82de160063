package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/yoga-journey/pkg/catalog"
	"github.com/jwebster45206/yoga-journey/pkg/storage"
)

const (
	journeyTTL = 24 * time.Hour
	turnTTL    = 5 * time.Minute
)

// RedisStorage implements the Storage interface using Redis for journeys,
// reviews and themes, and the filesystem for the product catalog
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string

	catalogOnce sync.Once
	products    []catalog.Product
	catalogErr  error
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL is either a
// host:port address or a redis:// URL.
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		if parsed, err := redis.ParseURL(redisURL); err == nil {
			opts = parsed
		} else {
			logger.Warn("Could not parse redis URL, using it as an address", "error", err)
		}
	}

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  redis.NewClient(opts),
		logger:  logger,
		dataDir: dataDir,
	}
}

// Client exposes the underlying Redis client for the queue, broadcaster and
// worker locks, which share the connection pool.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}
