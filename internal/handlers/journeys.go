package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
	"github.com/jwebster45206/yoga-journey/pkg/queue"
	"github.com/jwebster45206/yoga-journey/pkg/storage"
	"github.com/jwebster45206/yoga-journey/pkg/textfilter"
)

const (
	maxActionRunes = 500
	maxPlayerRunes = 64
)

// RequestEnqueuer hands story requests to the worker pool.
type RequestEnqueuer interface {
	Enqueue(ctx context.Context, req *queue.Request) error
}

// QueuePublisher announces newly queued requests to event subscribers.
type QueuePublisher interface {
	PublishRequestQueued(ctx context.Context, journeyID uuid.UUID, requestID string, requestType string) error
}

// JourneyHandler serves everything under /v1/journeys.
type JourneyHandler struct {
	storage   storage.Storage
	queue     RequestEnqueuer
	publisher QueuePublisher // optional
	filter    *textfilter.Filter
	logger    *slog.Logger
}

func NewJourneyHandler(storage storage.Storage, queue RequestEnqueuer, publisher QueuePublisher, logger *slog.Logger) *JourneyHandler {
	return &JourneyHandler{
		storage:   storage,
		queue:     queue,
		publisher: publisher,
		filter:    textfilter.New(),
		logger:    logger,
	}
}

// ServeHTTP routes journey requests.
// Routes:
// POST   /v1/journeys                                  - Start a journey
// GET    /v1/journeys/{id}                             - Read a journey
// DELETE /v1/journeys/{id}                             - Delete a journey
// POST   /v1/journeys/{id}/actions                     - Submit an action
// GET    /v1/journeys/{id}/modules                     - Curriculum
// GET    /v1/journeys/{id}/dashboard                   - Progress summary
// GET    /v1/journeys/{id}/store                       - Annotated catalog
// GET    /v1/journeys/{id}/cart                        - Cart contents
// POST   /v1/journeys/{id}/cart                        - Add to cart
// DELETE /v1/journeys/{id}/cart/{productID}            - Remove from cart
// POST   /v1/journeys/{id}/checkout                    - Buy the cart
// GET    /v1/journeys/{id}/library                     - Owned products
// GET    /v1/journeys/{id}/library/{productID}/play    - Playback details
// GET    /v1/journeys/{id}/meditations                 - Free tracks
// POST   /v1/journeys/{id}/reviews                     - Review a product
// GET    /v1/journeys/{id}/profile                     - Profile and stats
// PATCH  /v1/journeys/{id}/profile                     - Edit profile or theme
func (h *JourneyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/v1/journeys")

	if len(parts) == 0 {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, h.logger, r, http.MethodPost)
			return
		}
		h.handleCreate(w, r)
		return
	}

	id, ok := parseJourneyID(parts[0])
	if !ok {
		h.logger.Warn("Invalid journey ID", "id", parts[0])
		writeError(w, h.logger, http.StatusBadRequest, "Invalid journey ID format")
		return
	}

	gs, err := h.storage.LoadJourney(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load journey", "error", err, "journey_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load journey")
		return
	}
	if gs == nil {
		writeError(w, h.logger, http.StatusNotFound, "Journey not found")
		return
	}

	route := parts[1:]
	resource := ""
	if len(route) > 0 {
		resource = route[0]
	}

	switch resource {
	case "":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, h.logger, http.StatusOK, gs)
		case http.MethodDelete:
			h.handleDelete(w, r, gs)
		default:
			methodNotAllowed(w, h.logger, r, http.MethodGet, http.MethodDelete)
		}
	case "actions":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, h.logger, r, http.MethodPost)
			return
		}
		h.handleAction(w, r, gs)
	case "modules":
		h.getOnly(w, r, func() { h.handleModules(w, gs) })
	case "dashboard":
		h.getOnly(w, r, func() { writeJSON(w, h.logger, http.StatusOK, gs.Dashboard()) })
	case "store":
		h.getOnly(w, r, func() { h.handleStore(w, r, gs) })
	case "cart":
		h.routeCart(w, r, gs, route[1:])
	case "checkout":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, h.logger, r, http.MethodPost)
			return
		}
		h.handleCheckout(w, r, gs)
	case "library":
		h.routeLibrary(w, r, gs, route[1:])
	case "meditations":
		h.getOnly(w, r, func() { h.handleMeditations(w, r, gs) })
	case "reviews":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, h.logger, r, http.MethodPost)
			return
		}
		h.handleReview(w, r, gs)
	case "profile":
		switch r.Method {
		case http.MethodGet:
			h.handleProfile(w, gs)
		case http.MethodPatch:
			h.handlePatchProfile(w, r, gs)
		default:
			methodNotAllowed(w, h.logger, r, http.MethodGet, http.MethodPatch)
		}
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown journey resource: "+resource)
	}
}

func (h *JourneyHandler) getOnly(w http.ResponseWriter, r *http.Request, fn func()) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, h.logger, r, http.MethodGet)
		return
	}
	fn()
}

// CreateJourneyRequest is the optional body for starting a journey.
type CreateJourneyRequest struct {
	Player string `json:"player,omitempty"`
}

// QueuedResponse reports a request handed to the worker pool.
type QueuedResponse struct {
	JourneyID uuid.UUID          `json:"journey_id"`
	RequestID string             `json:"request_id"`
	Journey   *journey.GameState `json:"journey,omitempty"`
}

func (h *JourneyHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateJourneyRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("Invalid create journey body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with optional 'player' field.")
		return
	}
	player := h.filter.Clean(req.Player, maxPlayerRunes)

	theme := journey.ThemeLight
	if player != "" {
		saved, err := h.storage.LoadTheme(r.Context(), player)
		if err != nil {
			h.logger.Warn("Failed to load saved theme", "error", err, "player", player)
		} else if saved != "" {
			theme = saved
		}
	}

	gs := journey.NewGameState(player, theme)
	gs.Pending = true
	if err := h.storage.SaveJourney(r.Context(), gs); err != nil {
		h.logger.Error("Failed to save new journey", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create journey")
		return
	}
	claimed, err := h.storage.ClaimTurn(r.Context(), gs.ID)
	if err != nil {
		h.logger.Error("Failed to claim opening turn", "error", err, "journey_id", gs.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create journey")
		return
	}
	if !claimed {
		h.logger.Error("Opening turn already claimed", "journey_id", gs.ID.String())
		writeError(w, h.logger, http.StatusConflict, "A story request is already in progress for this journey.")
		return
	}

	opening := queue.NewRequest(queue.RequestTypeOpening, gs.ID)
	if !h.enqueue(w, r, gs, opening) {
		return
	}

	h.logger.Info("Journey created", "journey_id", gs.ID.String(), "player", player, "theme", theme)
	writeJSON(w, h.logger, http.StatusCreated, QueuedResponse{
		JourneyID: gs.ID,
		RequestID: opening.RequestID,
		Journey:   gs,
	})
}

func (h *JourneyHandler) handleDelete(w http.ResponseWriter, r *http.Request, gs *journey.GameState) {
	if err := h.storage.DeleteJourney(r.Context(), gs.ID); err != nil {
		h.logger.Error("Failed to delete journey", "error", err, "journey_id", gs.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete journey")
		return
	}
	h.logger.Info("Journey deleted", "journey_id", gs.ID.String())
	w.WriteHeader(http.StatusNoContent)
}

// ActionRequest carries one player action.
type ActionRequest struct {
	Action string `json:"action"`
}

func (h *JourneyHandler) handleAction(w http.ResponseWriter, r *http.Request, gs *journey.GameState) {
	var req ActionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'action' field.")
		return
	}
	action := strings.TrimSpace(req.Action)
	if action == "" {
		writeError(w, h.logger, http.StatusBadRequest, "Action cannot be empty.")
		return
	}
	if runes := []rune(action); len(runes) > maxActionRunes {
		action = string(runes[:maxActionRunes])
	}

	if gs.IsGameOver {
		writeError(w, h.logger, http.StatusConflict, "Your journey is complete.")
		return
	}

	claimed, err := h.storage.ClaimTurn(r.Context(), gs.ID)
	if err != nil {
		h.logger.Error("Failed to claim turn", "error", err, "journey_id", gs.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to submit action")
		return
	}
	if !claimed {
		writeError(w, h.logger, http.StatusConflict, "A story request is already in progress for this journey.")
		return
	}

	updated, ok := h.update(w, r, gs.ID, func(cur *journey.GameState) error {
		if cur.IsGameOver {
			return rejectWith(http.StatusConflict, "Your journey is complete.")
		}
		cur.Pending = true
		cur.LastError = ""
		return nil
	})
	if !ok {
		h.releaseTurn(r.Context(), gs.ID)
		return
	}

	qr := queue.NewRequest(queue.RequestTypeAction, updated.ID)
	qr.Action = action
	if !h.enqueue(w, r, updated, qr) {
		return
	}

	h.logger.Info("Action queued", "journey_id", gs.ID.String(), "request_id", qr.RequestID)
	writeJSON(w, h.logger, http.StatusAccepted, QueuedResponse{JourneyID: gs.ID, RequestID: qr.RequestID})
}

// enqueue queues req and announces it. On failure it undoes the pending
// turn, writes the error response and returns false.
func (h *JourneyHandler) enqueue(w http.ResponseWriter, r *http.Request, gs *journey.GameState, req *queue.Request) bool {
	if err := h.queue.Enqueue(r.Context(), req); err != nil {
		h.logger.Error("Failed to enqueue request", "error", err, "journey_id", gs.ID.String(), "type", req.Type)
		_, saveErr := h.storage.UpdateJourney(r.Context(), gs.ID, func(cur *journey.GameState) error {
			cur.Pending = false
			return nil
		})
		if saveErr != nil {
			h.logger.Error("Failed to clear pending flag", "error", saveErr)
		}
		gs.Pending = false
		h.releaseTurn(r.Context(), gs.ID)
		writeError(w, h.logger, http.StatusServiceUnavailable, "The story queue is unavailable. Please try again.")
		return false
	}
	if h.publisher != nil {
		if err := h.publisher.PublishRequestQueued(r.Context(), gs.ID, req.RequestID, string(req.Type)); err != nil {
			h.logger.Error("Failed to publish queued event", "error", err)
		}
	}
	return true
}

func (h *JourneyHandler) releaseTurn(ctx context.Context, id uuid.UUID) {
	if err := h.storage.ReleaseTurn(ctx, id); err != nil {
		h.logger.Error("Failed to release turn", "error", err, "journey_id", id.String())
	}
}

// ModulesResponse is the curriculum as seen from the player's position.
type ModulesResponse struct {
	CurrentModuleIndex int                  `json:"current_module_index"`
	Progress           int                  `json:"progress"`
	Modules            []journey.ModuleInfo `json:"modules"`
}

func (h *JourneyHandler) handleModules(w http.ResponseWriter, gs *journey.GameState) {
	writeJSON(w, h.logger, http.StatusOK, ModulesResponse{
		CurrentModuleIndex: gs.CurrentModuleIndex,
		Progress:           journey.Progress(gs.CurrentModuleIndex),
		Modules:            journey.Curriculum(gs.CurrentModuleIndex),
	})
}

// update applies fn to the stored journey and saves it, retrying on
// concurrent writes. On failure it writes the error response and returns
// false.
func (h *JourneyHandler) update(w http.ResponseWriter, r *http.Request, id uuid.UUID, fn func(*journey.GameState) error) (*journey.GameState, bool) {
	gs, err := h.storage.UpdateJourney(r.Context(), id, fn)
	var se *statusError
	switch {
	case errors.As(err, &se):
		writeError(w, h.logger, se.status, se.msg)
		return nil, false
	case err != nil:
		h.logger.Error("Failed to save journey", "error", err, "journey_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save journey")
		return nil, false
	case gs == nil:
		writeError(w, h.logger, http.StatusNotFound, "Journey not found")
		return nil, false
	}
	return gs, true
}
