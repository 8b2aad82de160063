package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/yoga-journey/pkg/storage"
)

type stubDepth struct {
	depth int
	err   error
}

func (s stubDepth) Depth(ctx context.Context) (int, error) {
	return s.depth, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name            string
		pingErr         error
		queue           QueueDepther
		expectedStatus  int
		expectedHealth  string
		expectedStorage string
	}{
		{
			name:            "all healthy",
			queue:           stubDepth{depth: 3},
			expectedStatus:  http.StatusOK,
			expectedHealth:  "healthy",
			expectedStorage: "healthy",
		},
		{
			name:            "unhealthy storage",
			pingErr:         errors.New("connection refused"),
			expectedStatus:  http.StatusServiceUnavailable,
			expectedHealth:  "degraded",
			expectedStorage: "unhealthy",
		},
		{
			name:            "unhealthy queue",
			queue:           stubDepth{err: errors.New("timeout")},
			expectedStatus:  http.StatusServiceUnavailable,
			expectedHealth:  "degraded",
			expectedStorage: "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMockStorage()
			store.SetPingError(tt.pingErr)
			handler := NewHealthHandler(store, tt.queue, "gemini", "none", testLogger())

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.expectedHealth, resp.Status)
			assert.Equal(t, "yoga-journey", resp.Service)
			assert.Equal(t, tt.expectedStorage, resp.Components["storage"])
			assert.Equal(t, "gemini", resp.Components["story_provider"])
		})
	}
}

func TestHealthHandler_QueueDepth(t *testing.T) {
	handler := NewHealthHandler(storage.NewMockStorage(), stubDepth{depth: 4}, "venice", "venice", testLogger())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.EqualValues(t, 4, resp.Components["queue_depth"])
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	handler := NewHealthHandler(storage.NewMockStorage(), nil, "gemini", "none", testLogger())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
