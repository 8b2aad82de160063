package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/yoga-journey/internal/services/events"
)

const keepaliveInterval = 30 * time.Second

// EventsHandler streams journey events to the browser as Server-Sent Events
type EventsHandler struct {
	redisClient *redis.Client
	logger      *slog.Logger
	keepalive   time.Duration
}

func NewEventsHandler(redisClient *redis.Client, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		redisClient: redisClient,
		logger:      logger,
		keepalive:   keepaliveInterval,
	}
}

// ServeHTTP handles SSE requests for journey events
// GET /v1/events/journeys/{journeyID}
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, r, http.MethodGet)
		return
	}

	parts := splitPath(r.URL.Path, "/v1/events")
	if len(parts) != 2 || parts[0] != "journeys" {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/events/journeys/{journeyID}")
		return
	}
	journeyID, ok := parseJourneyID(parts[1])
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid journey ID format.")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, h.logger, http.StatusInternalServerError, "Streaming is not supported.")
		return
	}

	// Subscribe before telling the client it is connected, so nothing
	// published after the connected event is missed.
	channel := events.Channel(journeyID)
	pubsub := h.redisClient.Subscribe(r.Context(), channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()
	if _, err := pubsub.Receive(r.Context()); err != nil {
		h.logger.Error("Failed to subscribe", "error", err, "channel", channel)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Event stream unavailable.")
		return
	}

	h.logger.Info("SSE connection established",
		"journey_id", journeyID.String(),
		"remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	msgChan := pubsub.Channel()
	keepaliveTicker := time.NewTicker(h.keepalive)
	defer keepaliveTicker.Stop()

	h.sendSSE(w, flusher, "connected", map[string]any{
		"journey_id": journeyID.String(),
		"message":    "Connected to event stream",
	})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "journey_id", journeyID.String())
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			h.sendSSE(w, flusher, string(event.Type), event)

		case <-keepaliveTicker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendSSE(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataJSON); err != nil {
		h.logger.Error("Failed to write event", "error", err)
		return
	}
	flusher.Flush()
}
