package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
	"github.com/jwebster45206/yoga-journey/pkg/prompts"
)

// MockStoryAPI is a mock StoryService and ImageService for testing
type MockStoryAPI struct {
	InitModelFunc         func(ctx context.Context, modelName string) error
	GenerateStoryStepFunc func(ctx context.Context, p prompts.Prompt) (*journey.StoryStep, error)
	GenerateImageFunc     func(ctx context.Context, story string) (string, error)

	// Track calls for testing
	InitModelCalls         []string
	GenerateStoryStepCalls []prompts.Prompt
	GenerateImageCalls     []string

	mu sync.Mutex // protects all fields above
}

var (
	_ StoryService = (*MockStoryAPI)(nil)
	_ ImageService = (*MockStoryAPI)(nil)
)

func NewMockStoryAPI() *MockStoryAPI {
	return &MockStoryAPI{
		InitModelCalls:         make([]string, 0),
		GenerateStoryStepCalls: make([]prompts.Prompt, 0),
		GenerateImageCalls:     make([]string, 0),
	}
}

func (m *MockStoryAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	m.InitModelCalls = append(m.InitModelCalls, modelName)
	fn := m.InitModelFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, modelName)
	}
	return nil
}

// GenerateStoryStep returns a calm default step unless GenerateStoryStepFunc
// is set
func (m *MockStoryAPI) GenerateStoryStep(ctx context.Context, p prompts.Prompt) (*journey.StoryStep, error) {
	m.mu.Lock()
	m.GenerateStoryStepCalls = append(m.GenerateStoryStepCalls, p)
	fn := m.GenerateStoryStepFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, p)
	}
	return &journey.StoryStep{
		Outcome: "You took a slow, steady breath.",
		Story:   "Sunlight pools on the wooden floor of the studio.",
	}, nil
}

func (m *MockStoryAPI) GenerateImage(ctx context.Context, story string) (string, error) {
	m.mu.Lock()
	m.GenerateImageCalls = append(m.GenerateImageCalls, story)
	fn := m.GenerateImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, story)
	}
	return "data:image/jpeg;base64,bW9jaw==", nil
}

// StoryCalls returns a copy of the prompts received so far.
func (m *MockStoryAPI) StoryCalls() []prompts.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]prompts.Prompt(nil), m.GenerateStoryStepCalls...)
}

// ImageCalls returns a copy of the stories sent for painting so far.
func (m *MockStoryAPI) ImageCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.GenerateImageCalls...)
}

// Reset clears call history
func (m *MockStoryAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.GenerateStoryStepCalls = make([]prompts.Prompt, 0)
	m.GenerateImageCalls = make([]string, 0)
}
