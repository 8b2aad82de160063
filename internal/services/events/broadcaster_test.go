package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_PublishesToJourneyChannel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	b := NewBroadcaster(rdb, logger)

	ctx := context.Background()
	journeyID := uuid.New()

	sub := rdb.Subscribe(ctx, Channel(journeyID))
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, b.PublishRequestFailed(ctx, journeyID, "req-1", "Your fate is uncertain. Try your action again."))

	select {
	case msg := <-sub.Channel():
		var event Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, EventTypeRequestFailed, event.Type)
		assert.Equal(t, "req-1", event.RequestID)
		assert.Equal(t, journeyID.String(), event.JourneyID)
		assert.Equal(t, "Your fate is uncertain. Try your action again.", event.Data["error"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestChannel(t *testing.T) {
	id := uuid.MustParse("6f1c1e2a-0000-4000-8000-000000000001")
	assert.Equal(t, "journey-events:6f1c1e2a-0000-4000-8000-000000000001", Channel(id))
}
