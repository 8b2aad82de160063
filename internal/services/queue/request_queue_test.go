package queue

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/yoga-journey/pkg/queue"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client, err := NewClient(mr.Addr(), logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create queue client: %v", err)
	}
	return client, mr
}

func TestRequestQueue_FIFO(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewRequestQueue(client)
	ctx := context.Background()
	journeyID := uuid.New()

	first := queue.NewRequest(queue.RequestTypeOpening, journeyID)
	second := queue.NewRequest(queue.RequestTypeAction, journeyID)
	second.Action = "roll out the mat"

	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, depth)

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.RequestID, got.RequestID)
	assert.Equal(t, queue.RequestTypeOpening, got.Type)

	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "roll out the mat", got.Action)
	assert.Equal(t, journeyID, got.JourneyID)

	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRequestQueue_BlockingDequeue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewRequestQueue(client)
	ctx := context.Background()

	req := queue.NewRequest(queue.RequestTypeImage, uuid.New())
	req.Story = "Sunlight through paper lanterns."
	require.NoError(t, q.Enqueue(ctx, req))

	got, err := q.BlockingDequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, req.Story, got.Story)
}

func TestRequestQueue_BlockingDequeueTimeout(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewRequestQueue(client)
	got, err := q.BlockingDequeue(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewClient_BadURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	_, err := NewClient("redis://:::bad", logger)
	assert.Error(t, err)
}
