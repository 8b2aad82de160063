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
	openAIBaseURL = "https://api.openai.com/v1"

	DefaultOpenAITemperature = 0.8
	DefaultOpenAIMaxTokens   = 1024
)

// OpenAIService implements StoryService for OpenAI chat completions
type OpenAIService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
}

// Ensure OpenAIService implements StoryService interface
var _ StoryService = (*OpenAIService)(nil)

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIChatRequest represents the request structure for chat completions.
// The response format reuses the strict JSON schema shape Venice accepts.
type OpenAIChatRequest struct {
	Model               string                `json:"model"`
	Messages            []OpenAIMessage       `json:"messages"`
	Temperature         float64               `json:"temperature,omitempty"`
	MaxCompletionTokens int                   `json:"max_completion_tokens,omitempty"`
	ResponseFormat      *VeniceResponseFormat `json:"response_format,omitempty"`
}

// OpenAIChatResponse represents the response structure for chat completions
type OpenAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewOpenAIService(apiKey string, modelName string) *OpenAIService {
	return &OpenAIService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   openAIBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// InitModel records the model name; OpenAI needs no warm-up.
func (o *OpenAIService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" {
		o.modelName = modelName
	}
	return nil
}

func (o *OpenAIService) GenerateStoryStep(ctx context.Context, p prompts.Prompt) (*journey.StoryStep, error) {
	chatReq := OpenAIChatRequest{
		Model: o.modelName,
		Messages: []OpenAIMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature:         DefaultOpenAITemperature,
		MaxCompletionTokens: DefaultOpenAIMaxTokens,
		ResponseFormat:      storyStepResponseFormat(),
	}

	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp OpenAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, errors.New("no choices in openai response")
	}

	msg := chatResp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("%w: model refused: %s", ErrUnparseableStep, msg.Refusal)
	}
	return parseStoryStep(msg.Content)
}
