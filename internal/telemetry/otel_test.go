package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	stop := Init(context.Background(), log, Config{Enabled: false})
	require.NotNil(t, stop)
	assert.NoError(t, stop(context.Background()))

	ctx, span := StartSpan(context.Background(), "test")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("boom"))
}

func TestBuildExporter_CollectorURL(t *testing.T) {
	tests := []struct {
		name     string
		suffix   string
		wantPath string
	}{
		{"base url", "", "/v1/traces"},
		{"trailing slash", "/", "/v1/traces"},
		{"full traces url", "/v1/traces", "/v1/traces"},
		{"prefixed collector", "/otel", "/otel/v1/traces"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			var paths []string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				paths = append(paths, r.URL.Path)
				mu.Unlock()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			exporter, err := buildExporter(context.Background(), log, "http://"+server.Listener.Addr().String()+tt.suffix)
			require.NoError(t, err)

			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			_, span := tp.Tracer("test").Start(context.Background(), "journey.story_step")
			span.End()
			require.NoError(t, tp.Shutdown(context.Background()))

			mu.Lock()
			defer mu.Unlock()
			require.NotEmpty(t, paths, "plain http collector must be reachable")
			assert.Equal(t, tt.wantPath, paths[0])
		})
	}
}
