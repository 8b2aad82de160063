package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jwebster45206/yoga-journey/pkg/prompts"
)

const imagenBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ImagenService implements ImageService with Imagen on the Gemini API.
// The generative-ai-go client does not expose image generation, so this
// goes over REST.
type ImagenService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
}

// Ensure ImagenService implements ImageService interface
var _ ImageService = (*ImagenService)(nil)

type imagenRequest struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters imagenParameters `json:"parameters"`
}

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenParameters struct {
	SampleCount   int                 `json:"sampleCount"`
	AspectRatio   string              `json:"aspectRatio"`
	OutputOptions imagenOutputOptions `json:"outputOptions"`
}

type imagenOutputOptions struct {
	MimeType string `json:"mimeType"`
}

type imagenResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewImagenService(apiKey string, modelName string) *ImagenService {
	return &ImagenService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   imagenBaseURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

func (s *ImagenService) GenerateImage(ctx context.Context, story string) (string, error) {
	reqBody, err := json.Marshal(imagenRequest{
		Instances: []imagenInstance{{Prompt: prompts.ImagePrompt(story)}},
		Parameters: imagenParameters{
			SampleCount:   1,
			AspectRatio:   "3:4",
			OutputOptions: imagenOutputOptions{MimeType: "image/jpeg"},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:predict", s.baseURL, url.PathEscape(s.modelName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
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

	var imgResp imagenResponse
	if err := json.Unmarshal(body, &imgResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if imgResp.Error != nil {
		return "", fmt.Errorf("API error: %s", imgResp.Error.Message)
	}
	if len(imgResp.Predictions) == 0 || imgResp.Predictions[0].BytesBase64Encoded == "" {
		return "", errors.New("no image in imagen response")
	}
	p := imgResp.Predictions[0]
	return dataURI(p.MimeType, p.BytesBase64Encoded), nil
}
