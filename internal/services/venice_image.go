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

	"github.com/jwebster45206/yoga-journey/pkg/prompts"
)

// VeniceImageService implements ImageService with Venice image generation
type VeniceImageService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
}

// Ensure VeniceImageService implements ImageService interface
var _ ImageService = (*VeniceImageService)(nil)

type VeniceImageRequest struct {
	Model        string `json:"model"`
	Prompt       string `json:"prompt"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	ReturnBinary bool   `json:"return_binary"`
}

type VeniceImageResponse struct {
	ID     string   `json:"id"`
	Images []string `json:"images"`
}

func NewVeniceImageService(apiKey string, modelName string) *VeniceImageService {
	return &VeniceImageService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   veniceBaseURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

func (v *VeniceImageService) GenerateImage(ctx context.Context, story string) (string, error) {
	// 3:4 portrait, matching the scene panel.
	reqBody, err := json.Marshal(VeniceImageRequest{
		Model:        v.modelName,
		Prompt:       prompts.ImagePrompt(story),
		Width:        768,
		Height:       1024,
		Format:       "jpeg",
		ReturnBinary: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/image/generate", bytes.NewBuffer(reqBody))
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

	var imgResp VeniceImageResponse
	if err := json.Unmarshal(body, &imgResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(imgResp.Images) == 0 || imgResp.Images[0] == "" {
		return "", errors.New("no image in venice response")
	}
	return dataURI("image/jpeg", imgResp.Images[0]), nil
}
