package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
	"github.com/jwebster45206/yoga-journey/pkg/prompts"
)

const DefaultGeminiTemperature = 0.9

// GeminiService implements StoryService with the Gemini API
type GeminiService struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

// Ensure GeminiService implements StoryService interface
var _ StoryService = (*GeminiService)(nil)

func NewGeminiService(ctx context.Context, apiKey string, modelName string, logger *slog.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// InitModel checks that the model exists and is reachable with our key
func (g *GeminiService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" {
		g.modelName = modelName
	}
	info, err := g.client.GenerativeModel(g.modelName).Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to look up gemini model %s: %w", g.modelName, err)
	}
	g.logger.Info("Gemini model ready", "model", info.Name, "input_token_limit", info.InputTokenLimit)
	return nil
}

func (g *GeminiService) GenerateStoryStep(ctx context.Context, p prompts.Prompt) (*journey.StoryStep, error) {
	// A fresh model per call keeps the system instruction local to this request.
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(DefaultGeminiTemperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = storyStepSchema()
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}

	resp, err := model.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}
	return parseStoryStep(text)
}

func (g *GeminiService) Close() error {
	return g.client.Close()
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content in gemini response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("unexpected response part type from gemini")
	}
	return sb.String(), nil
}

// storyStepSchema is the story step response in Gemini's schema dialect.
func storyStepSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	boolean := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeBoolean, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"outcome": str(prompts.DescOutcome),
			"story":   str(prompts.DescStory),
			"inventoryChange": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"addItem":    str(prompts.DescAddItem),
					"removeItem": str(prompts.DescRemoveItem),
				},
				Required: []string{"addItem", "removeItem"},
			},
			"relationshipChange": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"characterName":  str(prompts.DescCharacterName),
					"affinityChange": {Type: genai.TypeInteger, Description: prompts.DescAffinityChange},
					"characterBio":   str(prompts.DescCharacterBio),
				},
				Required: []string{"characterName", "affinityChange", "characterBio"},
			},
			"badgeEarned":      str(prompts.DescBadgeEarned),
			"isModuleComplete": boolean(prompts.DescIsModuleComplete),
			"isGameOver":       boolean(prompts.DescIsGameOver),
		},
		Required: prompts.StoryStepRequired,
	}
}
