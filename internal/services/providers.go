package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jwebster45206/yoga-journey/internal/config"
)

// SupportedStoryProviders lists the STORY_PROVIDER values NewStoryService accepts.
var SupportedStoryProviders = []string{"gemini", "anthropic", "venice", "openai", "ollama"}

// NewStoryService builds the configured story provider. The returned closer
// releases provider clients and is never nil.
func NewStoryService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (StoryService, io.Closer, error) {
	switch cfg.StoryProvider {
	case "gemini":
		svc, err := NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.ModelName, logger)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return svc, svc, nil
	case "anthropic":
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, logger), nopCloser{}, nil
	case "venice":
		return NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName), nopCloser{}, nil
	case "openai":
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName), nopCloser{}, nil
	case "ollama":
		return NewOllamaService(cfg.OllamaURL, cfg.ModelName, logger), nopCloser{}, nil
	default:
		return nil, nopCloser{}, fmt.Errorf("unsupported story provider %q (supported: %v)", cfg.StoryProvider, SupportedStoryProviders)
	}
}

// NewImageService builds the configured image provider, or returns nil when
// scene images are turned off.
func NewImageService(cfg *config.Config) (ImageService, error) {
	switch cfg.ImageProvider {
	case "none", "":
		return nil, nil
	case "gemini":
		return NewImagenService(cfg.GeminiAPIKey, cfg.ImageModelName), nil
	case "venice":
		return NewVeniceImageService(cfg.VeniceAPIKey, cfg.ImageModelName), nil
	default:
		return nil, fmt.Errorf("unsupported image provider %q", cfg.ImageProvider)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
