package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/yoga-journey/pkg/queue"
)

const requestsKey = "requests"

// RequestQueue is the global FIFO of story and image requests shared by the
// API and the workers.
type RequestQueue struct {
	client *Client
}

func NewRequestQueue(client *Client) *RequestQueue {
	return &RequestQueue{client: client}
}

// Enqueue adds a request to the end of the global queue
func (q *RequestQueue) Enqueue(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}
	if err := q.client.rdb.RPush(ctx, requestsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	return nil
}

// Dequeue removes and returns the next request. Returns nil if the queue is
// empty.
func (q *RequestQueue) Dequeue(ctx context.Context) (*queue.Request, error) {
	result, err := q.client.rdb.LPop(ctx, requestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}
	req, err := queue.FromJSON([]byte(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// BlockingDequeue waits up to timeout for a request. A zero timeout waits
// until ctx is done. Returns nil, nil when the wait times out.
func (q *RequestQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := q.client.rdb.BLPop(ctx, timeout, requestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queue.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// Depth returns the number of requests waiting in the queue
func (q *RequestQueue) Depth(ctx context.Context) (int, error) {
	count, err := q.client.rdb.LLen(ctx, requestsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get request queue depth: %w", err)
	}
	return int(count), nil
}
