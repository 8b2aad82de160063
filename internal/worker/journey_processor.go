package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jwebster45206/yoga-journey/internal/logger"
	"github.com/jwebster45206/yoga-journey/internal/services"
	"github.com/jwebster45206/yoga-journey/internal/telemetry"
	"github.com/jwebster45206/yoga-journey/pkg/journey"
	"github.com/jwebster45206/yoga-journey/pkg/prompts"
	"github.com/jwebster45206/yoga-journey/pkg/queue"
	"github.com/jwebster45206/yoga-journey/pkg/storage"
)

// Messages shown to the player when a request fails. Nothing is retried;
// the player resubmits.
const (
	OpeningFailedMessage = "The story fails to load. Please check your API key and refresh."
	ActionFailedMessage  = "Your fate is uncertain. Try your action again."
	ImageFailedMessage   = "The scene is unclear... (Image generation failed)"
	GameOverMessage      = "Your journey is complete."
)

const (
	storyTimeout = 60 * time.Second
	imageTimeout = 90 * time.Second
)

var ErrJourneyNotFound = errors.New("journey not found")

// Enqueuer accepts follow-up requests, such as the image for a resolved step.
type Enqueuer interface {
	Enqueue(ctx context.Context, req *queue.Request) error
}

// Publisher receives progress events for a journey.
type Publisher interface {
	PublishRequestQueued(ctx context.Context, journeyID uuid.UUID, requestID string, requestType string) error
	PublishRequestProcessing(ctx context.Context, journeyID uuid.UUID, requestID string, requestType string, action string) error
	PublishRequestCompleted(ctx context.Context, journeyID uuid.UUID, requestID string, result map[string]any) error
	PublishRequestFailed(ctx context.Context, journeyID uuid.UUID, requestID string, errorMsg string) error
	PublishJourneyUpdated(ctx context.Context, journeyID uuid.UUID, moduleIndex int, module string, gameOver bool) error
	PublishImageReady(ctx context.Context, journeyID uuid.UUID, requestID string) error
}

// JourneyProcessor resolves queued requests: it asks the story service for
// the next step, folds it into the journey and saves the result.
type JourneyProcessor struct {
	storage   storage.Storage
	story     services.StoryService
	images    services.ImageService // nil disables scene images
	queue     Enqueuer
	publisher Publisher
	logger    *slog.Logger

	historyLimit int // 0 sends the whole story
}

func NewJourneyProcessor(
	storage storage.Storage,
	story services.StoryService,
	images services.ImageService,
	queue Enqueuer,
	publisher Publisher,
	logger *slog.Logger,
) *JourneyProcessor {
	return &JourneyProcessor{
		storage:   storage,
		story:     story,
		images:    images,
		queue:     queue,
		publisher: publisher,
		logger:    logger,
	}
}

// WithHistoryLimit caps how many past story entries go into each prompt.
func (p *JourneyProcessor) WithHistoryLimit(limit int) *JourneyProcessor {
	p.historyLimit = limit
	return p
}

// Process handles a single request of any type.
func (p *JourneyProcessor) Process(ctx context.Context, req *queue.Request) error {
	p.publishProcessing(ctx, req)

	switch req.Type {
	case queue.RequestTypeOpening, queue.RequestTypeAction:
		return p.processStory(ctx, req)
	case queue.RequestTypeImage:
		return p.processImage(ctx, req)
	default:
		return fmt.Errorf("unknown request type: %s", req.Type)
	}
}

func (p *JourneyProcessor) processStory(ctx context.Context, req *queue.Request) (err error) {
	start := time.Now()
	log := logger.WithJourney(p.logger, req.JourneyID.String(), req.RequestID)

	ctx, span := telemetry.StartSpan(ctx, "journey.story_step",
		attribute.String("journey.id", req.JourneyID.String()),
		attribute.String("request.type", string(req.Type)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	// The turn claimed by the API is released however this ends.
	defer func() {
		if relErr := p.storage.ReleaseTurn(context.WithoutCancel(ctx), req.JourneyID); relErr != nil {
			log.Error("Failed to release turn", "error", relErr)
		}
	}()

	banner := ActionFailedMessage
	action := req.Action
	if req.Type == queue.RequestTypeOpening {
		banner = OpeningFailedMessage
		action = ""
	}

	gs, err := p.storage.LoadJourney(ctx, req.JourneyID)
	if err != nil {
		p.publishFailed(ctx, log, req, banner)
		return fmt.Errorf("failed to load journey: %w", err)
	}
	if gs == nil {
		p.publishFailed(ctx, log, req, banner)
		return fmt.Errorf("%w: %s", ErrJourneyNotFound, req.JourneyID)
	}
	if gs.IsGameOver {
		p.fail(ctx, log, req, GameOverMessage)
		return journey.ErrGameOver
	}

	prompt, err := prompts.New().
		WithGameState(gs).
		WithAction(action).
		WithHistoryLimit(p.historyLimit).
		Build()
	if err != nil {
		p.fail(ctx, log, req, banner)
		return fmt.Errorf("failed to build prompt: %w", err)
	}

	stepCtx, cancel := context.WithTimeout(ctx, storyTimeout)
	defer cancel()

	log.Debug("Requesting story step", "module_index", gs.CurrentModuleIndex)
	step, err := p.generateStep(stepCtx, prompt)
	if err != nil {
		log.Error("Story service failed", "error", err)
		p.fail(ctx, log, req, banner)
		return fmt.Errorf("story step failed: %w", err)
	}

	// Applied to whatever is stored now, so cart and profile edits made
	// during the call are kept.
	var applyErr error
	gs, err = p.storage.UpdateJourney(ctx, req.JourneyID, func(cur *journey.GameState) error {
		if applyErr = p.applyStep(ctx, log, cur, step, action); applyErr != nil {
			return applyErr
		}
		cur.Pending = false
		cur.LastError = ""
		return nil
	})
	if applyErr != nil {
		p.fail(ctx, log, req, banner)
		return fmt.Errorf("failed to apply story step: %w", applyErr)
	}
	if err != nil {
		p.fail(ctx, log, req, banner)
		return fmt.Errorf("failed to save journey: %w", err)
	}
	if gs == nil {
		p.publishFailed(ctx, log, req, banner)
		return fmt.Errorf("%w: %s", ErrJourneyNotFound, req.JourneyID)
	}

	log.Info("Story step applied",
		"module_index", gs.CurrentModuleIndex,
		"badges", len(gs.Badges),
		"is_game_over", gs.IsGameOver,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	result := map[string]any{
		"outcome":      step.Outcome,
		"story":        step.Story,
		"module_index": gs.CurrentModuleIndex,
		"is_game_over": gs.IsGameOver,
		"duration_ms":  time.Since(start).Milliseconds(),
	}
	if pubErr := p.publisher.PublishRequestCompleted(ctx, gs.ID, req.RequestID, result); pubErr != nil {
		log.Error("Failed to publish completion event", "error", pubErr)
	}
	if pubErr := p.publisher.PublishJourneyUpdated(ctx, gs.ID, gs.CurrentModuleIndex, gs.CurrentModuleName(), gs.IsGameOver); pubErr != nil {
		log.Error("Failed to publish journey update", "error", pubErr)
	}

	p.enqueueImage(ctx, log, gs.ID, step.Story)
	return nil
}

func (p *JourneyProcessor) generateStep(ctx context.Context, prompt prompts.Prompt) (step *journey.StoryStep, err error) {
	ctx, span := telemetry.StartSpan(ctx, "story.generate")
	defer func() { telemetry.EndSpan(span, err) }()
	return p.story.GenerateStoryStep(ctx, prompt)
}

func (p *JourneyProcessor) applyStep(ctx context.Context, log *slog.Logger, gs *journey.GameState, step *journey.StoryStep, action string) (err error) {
	_, span := telemetry.StartSpan(ctx, "journey.apply_step")
	defer func() { telemetry.EndSpan(span, err) }()
	return journey.NewStepWorker(gs, step, log).Apply(action)
}

// enqueueImage queues a scene painting for story. Failures are logged only;
// the step itself has already succeeded.
func (p *JourneyProcessor) enqueueImage(ctx context.Context, log *slog.Logger, journeyID uuid.UUID, story string) {
	if p.images == nil || p.queue == nil || story == "" {
		return
	}
	imgReq := queue.NewRequest(queue.RequestTypeImage, journeyID)
	imgReq.Story = story
	if err := p.queue.Enqueue(ctx, imgReq); err != nil {
		log.Error("Failed to enqueue image request", "error", err)
		return
	}
	if err := p.publisher.PublishRequestQueued(ctx, journeyID, imgReq.RequestID, string(imgReq.Type)); err != nil {
		log.Error("Failed to publish queued event", "error", err)
	}
}

func (p *JourneyProcessor) processImage(ctx context.Context, req *queue.Request) (err error) {
	log := logger.WithJourney(p.logger, req.JourneyID.String(), req.RequestID)

	ctx, span := telemetry.StartSpan(ctx, "journey.scene_image",
		attribute.String("journey.id", req.JourneyID.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if p.images == nil {
		return errors.New("image service is not configured")
	}

	imgCtx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()

	image, err := p.images.GenerateImage(imgCtx, req.Story)
	if err != nil {
		log.Error("Image service failed", "error", err)
		p.publishFailed(ctx, log, req, ImageFailedMessage)
		return fmt.Errorf("image generation failed: %w", err)
	}

	gs, err := p.storage.UpdateJourney(ctx, req.JourneyID, func(cur *journey.GameState) error {
		cur.Image = image
		return nil
	})
	if err != nil {
		p.publishFailed(ctx, log, req, ImageFailedMessage)
		return fmt.Errorf("failed to save journey: %w", err)
	}
	if gs == nil {
		return fmt.Errorf("%w: %s", ErrJourneyNotFound, req.JourneyID)
	}

	log.Info("Scene image saved", "bytes", len(image))
	if pubErr := p.publisher.PublishImageReady(ctx, gs.ID, req.RequestID); pubErr != nil {
		log.Error("Failed to publish image event", "error", pubErr)
	}
	return nil
}

// fail records banner on the journey, clears the pending flag and tells
// subscribers.
func (p *JourneyProcessor) fail(ctx context.Context, log *slog.Logger, req *queue.Request, banner string) {
	_, err := p.storage.UpdateJourney(ctx, req.JourneyID, func(cur *journey.GameState) error {
		cur.Pending = false
		cur.LastError = banner
		return nil
	})
	if err != nil {
		log.Error("Failed to save journey error state", "error", err)
	}
	p.publishFailed(ctx, log, req, banner)
}

func (p *JourneyProcessor) publishFailed(ctx context.Context, log *slog.Logger, req *queue.Request, banner string) {
	if err := p.publisher.PublishRequestFailed(ctx, req.JourneyID, req.RequestID, banner); err != nil {
		log.Error("Failed to publish failure event", "error", err)
	}
}

func (p *JourneyProcessor) publishProcessing(ctx context.Context, req *queue.Request) {
	if err := p.publisher.PublishRequestProcessing(ctx, req.JourneyID, req.RequestID, string(req.Type), req.Action); err != nil {
		p.logger.Error("Failed to publish processing event", "error", err, "request_id", req.RequestID)
	}
}
