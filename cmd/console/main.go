package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

type ConsoleConfig struct {
	APIBaseURL string
	Player     string
	JourneyID  string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{Timeout: 30 * time.Second}
	flag.StringVar(&cfg.APIBaseURL, "api", getEnv("API_BASE_URL", "http://localhost:8080"), "Journey API base URL")
	flag.StringVar(&cfg.Player, "player", getEnv("PLAYER", ""), "Player name (keeps your saved theme)")
	flag.StringVar(&cfg.JourneyID, "journey", "", "Resume an existing journey by ID")
	flag.Parse()

	api := newAPIClient(&http.Client{Timeout: cfg.Timeout}, cfg.APIBaseURL)

	if !api.testConnection() {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	gs, err := startJourney(api, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(api, gs),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func startJourney(api *apiClient, cfg *ConsoleConfig) (*journey.GameState, error) {
	if cfg.JourneyID == "" {
		return api.createJourney(cfg.Player)
	}
	id, err := uuid.Parse(cfg.JourneyID)
	if err != nil {
		return nil, fmt.Errorf("invalid journey ID %q: %w", cfg.JourneyID, err)
	}
	return api.getJourney(id)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
