package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
	"github.com/jwebster45206/yoga-journey/pkg/prompts"
)

// ErrUnparseableStep is returned when the narrator's reply is not a usable
// story step.
var ErrUnparseableStep = errors.New("story step could not be parsed")

// StoryService generates story steps from narrator prompts
type StoryService interface {
	// InitModel prepares the model on startup
	InitModel(ctx context.Context, modelName string) error

	// GenerateStoryStep asks the narrator for the next story step. The
	// prompt carries the story history, the last action, the inventory,
	// relationships and the current module.
	GenerateStoryStep(ctx context.Context, prompt prompts.Prompt) (*journey.StoryStep, error)
}

// ImageService paints a scene for a story passage
type ImageService interface {
	// GenerateImage returns the image as a data URI.
	GenerateImage(ctx context.Context, story string) (string, error)
}

// parseStoryStep decodes a narrator reply, tolerating markdown code fences.
func parseStoryStep(content string) (*journey.StoryStep, error) {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUnparseableStep)
	}

	var step journey.StoryStep
	if err := json.Unmarshal([]byte(text), &step); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableStep, err)
	}
	if strings.TrimSpace(step.Story) == "" {
		return nil, fmt.Errorf("%w: missing story", ErrUnparseableStep)
	}
	return &step, nil
}

// dataURI wraps base64 image bytes for direct display.
func dataURI(mimeType, b64 string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + b64
}
