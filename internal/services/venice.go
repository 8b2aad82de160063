package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
	"github.com/jwebster45206/yoga-journey/pkg/prompts"
)

const (
	veniceBaseURL = "https://api.venice.ai/api/v1"

	DefaultVeniceTemperature = 0.7
	DefaultVeniceMaxTokens   = 1024
)

// VeniceService implements StoryService for Venice AI
type VeniceService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
}

// Ensure VeniceService implements StoryService interface
var _ StoryService = (*VeniceService)(nil)

type VeniceResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema VeniceJSONSchema `json:"json_schema"`
}

type VeniceJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type VeniceParameters struct {
	IncludeVeniceSystemPrompt bool   `json:"include_venice_system_prompt"`
	EnableWebSearch           string `json:"enable_web_search"`
}

type VeniceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// VeniceChatRequest represents the request structure for Venice AI chat completions
type VeniceChatRequest struct {
	Model            string                `json:"model"`
	Messages         []VeniceMessage       `json:"messages"`
	Temperature      float64               `json:"temperature,omitempty"`
	MaxTokens        int                   `json:"max_tokens,omitempty"`
	Stream           bool                  `json:"stream"`
	ResponseFormat   *VeniceResponseFormat `json:"response_format,omitempty"`
	VeniceParameters VeniceParameters      `json:"venice_parameters"`
}

// VeniceChatChoice represents a single choice in the Venice AI response
type VeniceChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// VeniceChatResponse represents the response structure for Venice AI chat completions
type VeniceChatResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []VeniceChatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewVeniceService(apiKey string, modelName string) *VeniceService {
	return &VeniceService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   veniceBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// InitModel initializes the model (Venice AI doesn't require explicit model initialization)
func (v *VeniceService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" {
		v.modelName = modelName
	}
	return nil
}

func (v *VeniceService) GenerateStoryStep(ctx context.Context, p prompts.Prompt) (*journey.StoryStep, error) {
	messages := []VeniceMessage{
		{Role: "system", Content: p.System},
		{Role: "user", Content: p.User},
	}
	content, err := v.chatCompletion(ctx, messages, storyStepResponseFormat())
	if err != nil {
		return nil, err
	}
	return parseStoryStep(content)
}

// chatCompletion makes a chat completion request to Venice AI
func (v *VeniceService) chatCompletion(ctx context.Context, messages []VeniceMessage, responseFormat *VeniceResponseFormat) (string, error) {
	veniceReq := VeniceChatRequest{
		Model:          v.modelName,
		Messages:       messages,
		Temperature:    DefaultVeniceTemperature,
		MaxTokens:      DefaultVeniceMaxTokens,
		Stream:         false,
		ResponseFormat: responseFormat,
		VeniceParameters: VeniceParameters{
			IncludeVeniceSystemPrompt: false,
			EnableWebSearch:           "off",
		},
	}

	reqBody, err := json.Marshal(veniceReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var veniceResp VeniceChatResponse
	if err := json.Unmarshal(body, &veniceResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if veniceResp.Error != nil {
		return "", fmt.Errorf("API error: %s", veniceResp.Error.Message)
	}
	if len(veniceResp.Choices) == 0 {
		return "", errors.New("no choices in venice response")
	}
	return veniceResp.Choices[0].Message.Content, nil
}

// storyStepResponseFormat requests strict schema-conforming JSON
func storyStepResponseFormat() *VeniceResponseFormat {
	return &VeniceResponseFormat{
		Type: "json_schema",
		JSONSchema: VeniceJSONSchema{
			Name:   "story_step",
			Strict: true,
			Schema: prompts.StoryStepJSONSchema(),
		},
	}
}
