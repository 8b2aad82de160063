package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
	"github.com/jwebster45206/yoga-journey/pkg/prompts"
)

// OllamaService implements StoryService for a local Ollama server
type OllamaService struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
	retryDelay time.Duration
}

// Ensure OllamaService implements StoryService interface
var _ StoryService = (*OllamaService)(nil)

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []OpenAIMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   map[string]any  `json:"format,omitempty"`
}

// NewOllamaService creates a new Ollama service instance
func NewOllamaService(baseURL string, modelName string, logger *slog.Logger) *OllamaService {
	return &OllamaService{
		baseURL:   strings.TrimRight(baseURL, "/"),
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger:     logger,
		retryDelay: 2 * time.Second,
	}
}

// InitModel waits for Ollama and pulls the model if it is not present.
func (s *OllamaService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" {
		s.modelName = modelName
	}
	s.logger.Info("Initializing story model", "model", s.modelName)

	if err := s.waitForOllamaReady(ctx); err != nil {
		return fmt.Errorf("ollama service is not ready: %w", err)
	}

	ready, err := s.isModelReady(ctx, s.modelName)
	if err != nil {
		return fmt.Errorf("failed to check model readiness: %w", err)
	}
	if ready {
		s.logger.Info("Model already available", "model", s.modelName)
		return nil
	}

	s.logger.Info("Model not found, pulling it", "model", s.modelName)
	if err := s.pullModel(ctx, s.modelName); err != nil {
		return fmt.Errorf("failed to pull model: %w", err)
	}
	s.logger.Info("Model pulled successfully", "model", s.modelName)
	return nil
}

// GenerateStoryStep asks Ollama for a step constrained to the story schema.
func (s *OllamaService) GenerateStoryStep(ctx context.Context, p prompts.Prompt) (*journey.StoryStep, error) {
	reqBody := ollamaChatRequest{
		Model: s.modelName,
		Messages: []OpenAIMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Stream: false,
		Format: prompts.StoryStepJSONSchema(),
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var responseBody bytes.Buffer
	if _, err := responseBody.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Error("Ollama API returned error",
			"status_code", resp.StatusCode,
			"response_body", responseBody.String())
		return nil, fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	var ollamaResp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(responseBody.Bytes(), &ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return parseStoryStep(ollamaResp.Message.Content)
}

// isModelReady checks if the specified model is available. Ollama reports
// tagged names, so "llama3.2" matches "llama3.2:latest".
func (s *OllamaService) isModelReady(ctx context.Context, modelName string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	var tagsResp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tagsResp); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, model := range tagsResp.Models {
		if model.Name == modelName || model.Name == modelName+":latest" {
			return true, nil
		}
	}
	return false, nil
}

func (s *OllamaService) pullModel(ctx context.Context, modelName string) error {
	jsonBody, err := json.Marshal(map[string]any{"name": modelName, "stream": false})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/pull", bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Pulling a model can take minutes.
	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}
	return nil
}

func (s *OllamaService) waitForOllamaReady(ctx context.Context) error {
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := s.httpClient.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				s.logger.Info("Ollama service is ready")
				return nil
			}
			s.logger.Debug("Ollama returned non-200 status", "status", resp.StatusCode, "attempt", i+1)
		} else {
			s.logger.Debug("Ollama not ready yet", "error", err, "attempt", i+1)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}

	return fmt.Errorf("ollama service did not become ready after %d attempts", maxRetries)
}
