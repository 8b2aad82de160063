package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/yoga-journey/internal/config"
	"github.com/jwebster45206/yoga-journey/pkg/prompts"
)

const stepJSON = `{"outcome":"You bowed.","story":"Incense curls upward.","inventoryChange":{"addItem":"","removeItem":""},"relationshipChange":{"characterName":"","affinityChange":0,"characterBio":""},"badgeEarned":"","isModuleComplete":false,"isGameOver":false}`

var testPrompt = prompts.Prompt{System: "be serene", User: "What happens next?"}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAnthropicService_GenerateStoryStep(t *testing.T) {
	var got AnthropicChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(AnthropicChatResponse{
			Model:   "claude-test",
			Content: []AnthropicContentBlock{{Type: "text", Text: "```json\n" + stepJSON + "\n```"}},
		})
	}))
	defer srv.Close()

	svc := NewAnthropicService("test-key", "claude-test", testLogger())
	svc.baseURL = srv.URL

	step, err := svc.GenerateStoryStep(context.Background(), testPrompt)
	require.NoError(t, err)
	assert.Equal(t, "Incense curls upward.", step.Story)
	assert.Equal(t, "be serene", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "What happens next?", got.Messages[0].Content)
}

func TestAnthropicService_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := NewAnthropicService("bad", "claude-test", testLogger())
	svc.baseURL = srv.URL

	_, err := svc.GenerateStoryStep(context.Background(), testPrompt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestVeniceService_GenerateStoryStep(t *testing.T) {
	var got VeniceChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		resp := VeniceChatResponse{Choices: []VeniceChatChoice{{}}}
		resp.Choices[0].Message.Content = stepJSON
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	svc := NewVeniceService("test-key", "venice-test")
	svc.baseURL = srv.URL

	step, err := svc.GenerateStoryStep(context.Background(), testPrompt)
	require.NoError(t, err)
	assert.Equal(t, "You bowed.", step.Outcome)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	assert.True(t, got.ResponseFormat.JSONSchema.Strict)
	assert.False(t, got.VeniceParameters.IncludeVeniceSystemPrompt)
}

func TestVeniceService_UnparseableReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := VeniceChatResponse{Choices: []VeniceChatChoice{{}}}
		resp.Choices[0].Message.Content = "I would rather tell you a poem."
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	svc := NewVeniceService("test-key", "venice-test")
	svc.baseURL = srv.URL

	_, err := svc.GenerateStoryStep(context.Background(), testPrompt)
	assert.True(t, errors.Is(err, ErrUnparseableStep))
}

func TestOpenAIService_GenerateStoryStep(t *testing.T) {
	var got OpenAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer oa-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":` + jsonString(stepJSON) + `}}]}`))
	}))
	defer srv.Close()

	svc := NewOpenAIService("oa-key", "gpt-test")
	svc.baseURL = srv.URL

	step, err := svc.GenerateStoryStep(context.Background(), testPrompt)
	require.NoError(t, err)
	assert.Equal(t, "Incense curls upward.", step.Story)
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "be serene", got.Messages[0].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.True(t, got.ResponseFormat.JSONSchema.Strict)
}

func TestOpenAIService_Refusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"","refusal":"no"}}]}`))
	}))
	defer srv.Close()

	svc := NewOpenAIService("oa-key", "gpt-test")
	svc.baseURL = srv.URL

	_, err := svc.GenerateStoryStep(context.Background(), testPrompt)
	assert.True(t, errors.Is(err, ErrUnparseableStep))
}

func TestOllamaService(t *testing.T) {
	var pulled string
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"other:latest"}]}`))
		case "/api/pull":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			pulled, _ = body["name"].(string)
		case "/api/chat":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":` + jsonString(stepJSON) + `}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	svc := NewOllamaService(srv.URL+"/", "llama-test", testLogger())
	require.NoError(t, svc.InitModel(context.Background(), ""))
	assert.Equal(t, "llama-test", pulled)

	step, err := svc.GenerateStoryStep(context.Background(), testPrompt)
	require.NoError(t, err)
	assert.Equal(t, "You bowed.", step.Outcome)
	assert.False(t, got.Stream)
	assert.NotEmpty(t, got.Format)
	require.Len(t, got.Messages, 2)
}

func TestOllamaService_NotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewOllamaService(srv.URL, "llama-test", testLogger())
	svc.retryDelay = time.Millisecond
	err := svc.InitModel(context.Background(), "")
	assert.Error(t, err)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestImagenService_GenerateImage(t *testing.T) {
	var got imagenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/imagen-test:predict", r.URL.Path)
		assert.Equal(t, "img-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"predictions":[{"bytesBase64Encoded":"QUJD","mimeType":"image/jpeg"}]}`))
	}))
	defer srv.Close()

	svc := NewImagenService("img-key", "imagen-test")
	svc.baseURL = srv.URL

	uri, err := svc.GenerateImage(context.Background(), "A lotus pond")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,QUJD", uri)

	require.Len(t, got.Instances, 1)
	assert.True(t, strings.Contains(got.Instances[0].Prompt, "A lotus pond"))
	assert.Equal(t, "3:4", got.Parameters.AspectRatio)
	assert.Equal(t, "image/jpeg", got.Parameters.OutputOptions.MimeType)
}

func TestImagenService_NoPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	svc := NewImagenService("img-key", "imagen-test")
	svc.baseURL = srv.URL

	_, err := svc.GenerateImage(context.Background(), "x")
	assert.Error(t, err)
}

func TestVeniceImageService_GenerateImage(t *testing.T) {
	var got VeniceImageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/image/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(VeniceImageResponse{Images: []string{"WFla"}})
	}))
	defer srv.Close()

	svc := NewVeniceImageService("key", "hidream")
	svc.baseURL = srv.URL

	uri, err := svc.GenerateImage(context.Background(), "Morning light")
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,WFla", uri)
	assert.Equal(t, 768, got.Width)
	assert.Equal(t, 1024, got.Height)
	assert.False(t, got.ReturnBinary)
}

func TestMockStoryAPI_TracksCalls(t *testing.T) {
	m := NewMockStoryAPI()
	ctx := context.Background()

	step, err := m.GenerateStoryStep(ctx, testPrompt)
	require.NoError(t, err)
	assert.NotEmpty(t, step.Story)

	_, err = m.GenerateImage(ctx, step.Story)
	require.NoError(t, err)

	assert.Len(t, m.StoryCalls(), 1)
	assert.Equal(t, []string{step.Story}, m.ImageCalls())

	m.Reset()
	assert.Empty(t, m.StoryCalls())
}

func TestNewStoryService(t *testing.T) {
	tests := []struct {
		provider string
		wantType any
		wantErr  bool
	}{
		{"anthropic", &AnthropicService{}, false},
		{"venice", &VeniceService{}, false},
		{"openai", &OpenAIService{}, false},
		{"ollama", &OllamaService{}, false},
		{"mistral", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &config.Config{StoryProvider: tt.provider, ModelName: "m", AnthropicAPIKey: "a", VeniceAPIKey: "v", OpenAIAPIKey: "o", OllamaURL: "http://localhost:11434"}
			svc, closer, err := NewStoryService(context.Background(), cfg, testLogger())
			require.NotNil(t, closer)
			assert.NoError(t, closer.Close())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, svc)
		})
	}
}

func TestNewImageService(t *testing.T) {
	svc, err := NewImageService(&config.Config{ImageProvider: "none"})
	require.NoError(t, err)
	assert.Nil(t, svc)

	svc, err = NewImageService(&config.Config{ImageProvider: "gemini", GeminiAPIKey: "g", ImageModelName: "imagen"})
	require.NoError(t, err)
	assert.IsType(t, &ImagenService{}, svc)

	svc, err = NewImageService(&config.Config{ImageProvider: "venice", VeniceAPIKey: "v", ImageModelName: "hidream"})
	require.NoError(t, err)
	assert.IsType(t, &VeniceImageService{}, svc)

	_, err = NewImageService(&config.Config{ImageProvider: "dalle"})
	assert.Error(t, err)
}
