package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/yoga-journey/pkg/storage"
)

type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Components map[string]any `json:"components"`
}

// QueueDepther reports how many story requests are waiting.
type QueueDepther interface {
	Depth(ctx context.Context) (int, error)
}

type HealthHandler struct {
	storage       storage.Storage
	queue         QueueDepther // optional
	storyProvider string
	imageProvider string
	logger        *slog.Logger
}

func NewHealthHandler(storage storage.Storage, queue QueueDepther, storyProvider, imageProvider string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage:       storage,
		queue:         queue,
		storyProvider: storyProvider,
		imageProvider: imageProvider,
		logger:        logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, r, http.MethodGet)
		return
	}

	h.logger.Debug("Health check requested", "remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]any{
		"story_provider": h.storyProvider,
		"image_provider": h.imageProvider,
	}
	overallStatus := "healthy"

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["storage"] = "healthy"
	}

	if h.queue != nil {
		if depth, err := h.queue.Depth(ctx); err != nil {
			h.logger.Warn("Queue health check failed", "error", err)
			components["queue"] = "unhealthy"
			overallStatus = "degraded"
		} else {
			components["queue_depth"] = depth
		}
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, statusCode, HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "yoga-journey",
		Components: components,
	})
}
