package journey

import (
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/yoga-journey/pkg/catalog"
)

// DefaultAction is the log action recorded for the opening story step.
const DefaultAction = "The journey begins..."

// Character is a named figure the player has met on the journey.
type Character struct {
	Affinity int    `json:"affinity"` // -100..100, set by the narrator
	Bio      string `json:"bio,omitempty"`
}

// LogEntry is one resolved player action.
type LogEntry struct {
	ID      int64  `json:"id"` // unix milliseconds
	Action  string `json:"action"`
	Outcome string `json:"outcome"`
}

// GameState is the full state of one player's yoga journey.
type GameState struct {
	ID     uuid.UUID `json:"id"`
	Player string    `json:"player,omitempty"`

	Story         string               `json:"story"`
	Image         string               `json:"image,omitempty"`
	Inventory     []string             `json:"inventory"`
	Relationships map[string]Character `json:"relationships"`
	Log           []LogEntry           `json:"log"`
	History       []string             `json:"history"`

	CurrentModuleIndex int      `json:"current_module_index"`
	Badges             []string `json:"badges"`
	IsGameOver         bool     `json:"is_game_over"`

	Cart    []catalog.Product `json:"cart"`
	Library []catalog.Product `json:"library"`
	Profile Profile           `json:"profile"`
	Theme   Theme             `json:"theme"`

	// Pending is set while a story request for this journey is queued or
	// being processed.
	Pending   bool   `json:"pending"`
	LastError string `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewGameState(player string, theme Theme) *GameState {
	if theme == "" {
		theme = ThemeLight
	}
	now := time.Now()
	return &GameState{
		ID:            uuid.New(),
		Player:        player,
		Inventory:     make([]string, 0),
		Relationships: make(map[string]Character),
		Log:           make([]LogEntry, 0),
		History:       make([]string, 0),
		Badges:        make([]string, 0),
		Cart:          make([]catalog.Product, 0),
		Library:       make([]catalog.Product, 0),
		Profile:       DefaultProfile(),
		Theme:         theme,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CurrentModuleName is the title of the module in progress.
func (gs *GameState) CurrentModuleName() string {
	return ModuleName(gs.CurrentModuleIndex)
}

// Affinities returns relationship scores keyed by character name, the shape
// the narrator is prompted with.
func (gs *GameState) Affinities() map[string]int {
	out := make(map[string]int, len(gs.Relationships))
	for name, c := range gs.Relationships {
		out[name] = c.Affinity
	}
	return out
}

// Dashboard summarises module progress.
type Dashboard struct {
	CompletedModules int      `json:"completed_modules"`
	TotalModules     int      `json:"total_modules"`
	Percent          int      `json:"percent"`
	CurrentModule    string   `json:"current_module"`
	Badges           []string `json:"badges"`
}

func (gs *GameState) Dashboard() Dashboard {
	return Dashboard{
		CompletedModules: gs.CurrentModuleIndex,
		TotalModules:     ModuleCount,
		Percent:          Progress(gs.CurrentModuleIndex),
		CurrentModule:    gs.CurrentModuleName(),
		Badges:           gs.Badges,
	}
}
