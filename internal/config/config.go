package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	RawLogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	LogLevel slog.Level `env:"-"`

	RedisURL string `env:"REDIS_URL" envDefault:"localhost:6379"`
	DataDir  string `env:"DATA_DIR" envDefault:"./data"`

	// Story generation
	StoryProvider string `env:"STORY_PROVIDER" envDefault:"gemini"`
	ModelName     string `env:"MODEL_NAME"`

	// Story entries sent back to the model each turn; 0 sends them all
	PromptHistoryLimit int `env:"PROMPT_HISTORY_LIMIT" envDefault:"20"`

	// Scene images
	ImageProvider  string `env:"IMAGE_PROVIDER" envDefault:"gemini"`
	ImageModelName string `env:"IMAGE_MODEL_NAME"`

	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	VeniceAPIKey    string `env:"VENICE_API_KEY"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OllamaURL       string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`

	WorkerConcurrency int `env:"WORKER_CONCURRENCY" envDefault:"1"`

	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.RawLogLevel)
	cfg.StoryProvider = strings.ToLower(strings.TrimSpace(cfg.StoryProvider))
	cfg.ImageProvider = strings.ToLower(strings.TrimSpace(cfg.ImageProvider))

	if cfg.ModelName == "" {
		cfg.ModelName = defaultModel(cfg.StoryProvider)
	}
	if cfg.ImageModelName == "" {
		cfg.ImageModelName = defaultImageModel(cfg.ImageProvider)
	}
	if cfg.WorkerConcurrency < 1 {
		cfg.WorkerConcurrency = 1
	}
	if cfg.PromptHistoryLimit < 0 {
		cfg.PromptHistoryLimit = 0
	}
	return cfg, nil
}

// Validate checks that the selected providers have credentials.
func (c *Config) Validate() error {
	var errs []error
	switch key := c.providerKey(c.StoryProvider); {
	case c.StoryProvider == "ollama":
		if c.OllamaURL == "" {
			errs = append(errs, errors.New("OLLAMA_URL is required for story provider ollama"))
		}
	case key == nil:
		errs = append(errs, fmt.Errorf("unsupported story provider %q", c.StoryProvider))
	case *key == "":
		errs = append(errs, fmt.Errorf("%s API key is required for story provider", c.StoryProvider))
	}
	switch c.ImageProvider {
	case "none":
	case "gemini", "venice":
		if *c.providerKey(c.ImageProvider) == "" {
			errs = append(errs, fmt.Errorf("%s API key is required for image provider", c.ImageProvider))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported image provider %q", c.ImageProvider))
	}
	return errors.Join(errs...)
}

func (c *Config) providerKey(provider string) *string {
	switch provider {
	case "gemini":
		return &c.GeminiAPIKey
	case "anthropic":
		return &c.AnthropicAPIKey
	case "venice":
		return &c.VeniceAPIKey
	case "openai":
		return &c.OpenAIAPIKey
	}
	return nil
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-3-5-haiku-latest"
	case "venice":
		return "llama-3.3-70b"
	case "openai":
		return "gpt-4o-mini"
	case "ollama":
		return "llama3.2"
	default:
		return "gemini-2.5-flash"
	}
}

func defaultImageModel(provider string) string {
	if provider == "venice" {
		return "hidream"
	}
	return "imagen-4.0-generate-001"
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
