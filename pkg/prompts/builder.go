package prompts

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

// Prompt is a system instruction plus the user turn sent to the narrator.
type Prompt struct {
	System string
	User   string
}

// Builder constructs narrator prompts using a fluent interface.
type Builder struct {
	gs           *journey.GameState
	action       string
	historyLimit int
}

// New creates a new prompt builder. By default the whole story history is
// sent.
func New() *Builder {
	return &Builder{}
}

// WithGameState sets the journey the prompt is built from.
func (b *Builder) WithGameState(gs *journey.GameState) *Builder {
	b.gs = gs
	return b
}

// WithAction sets the player's action. Without one, Build produces the
// opening prompt.
func (b *Builder) WithAction(action string) *Builder {
	b.action = action
	return b
}

// WithHistoryLimit keeps only the most recent limit story entries. Zero
// means no limit.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

func (b *Builder) Build() (Prompt, error) {
	if b.gs == nil {
		return Prompt{}, errors.New("gamestate is required")
	}
	system := SystemInstruction(b.gs.Inventory, b.gs.Affinities(), b.gs.CurrentModuleIndex)

	action := strings.TrimSpace(b.action)
	if action == "" {
		return Prompt{System: system, User: OpeningPrompt()}, nil
	}

	history := b.gs.History
	if b.historyLimit > 0 && len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	return Prompt{System: system, User: NextStepPrompt(history, action)}, nil
}

// SystemInstruction describes the narrator's role and the player's current
// standing.
func SystemInstruction(inventory []string, affinities map[string]int, moduleIndex int) string {
	tools := strings.Join(inventory, ", ")
	if tools == "" {
		tools = "nothing"
	}
	rels := formatRelationships(affinities)
	if rels == "" {
		rels = "none"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a serene narrator for an interactive story about a person on a yoga teacher training journey. The journey is structured into %d modules.\n", journey.ModuleCount)
	fmt.Fprintf(&sb, "- The player is currently on: '%s'. The story must revolve around the theme of this module.\n", journey.ModuleName(moduleIndex))
	sb.WriteString("- When you introduce a new character, provide a one-sentence bio for them in 'characterBio'.\n")
	sb.WriteString("- When the player takes an action that demonstrates understanding or completion of the current module's theme, set 'isModuleComplete' to true so they can advance.\n")
	sb.WriteString("- Award a badge for significant milestones. Examples: 'First Sun Salutation' for module 11, 'Chakra Awakened' for module 40, 'Halfway Point' for module 50, 'Yoga Sutra Scholar' for module 60, 'Aspiring Guru' for module 75. Be creative.\n")
	sb.WriteString("- The setting is a modern world with access to yoga studios, health food stores, meditation centers, and nature.\n")
	sb.WriteString("- Describe scenes with a focus on sensory details and internal feelings.\n")
	fmt.Fprintf(&sb, "- The player's current wellness tools are: [%s]. Use these to determine logical outcomes.\n", tools)
	fmt.Fprintf(&sb, "- Current relationships are: [%s]. Affinity scores range from -100 (hostile) to 100 (deeply connected).\n", rels)
	sb.WriteString("- The journey should include opportunities to learn about yoga poses, meditation, healthy eating, and mindfulness.\n")
	sb.WriteString("- Always respond in the requested JSON format. Do not add any extra text or markdown.")
	return sb.String()
}

// OpeningPrompt starts a new journey at the first module.
func OpeningPrompt() string {
	return fmt.Sprintf("Start a new interactive story for me. The main character is beginning their yoga teacher training journey. "+
		"Their first lesson is '%s'. They are feeling stressed and disconnected from their modern, fast-paced life. "+
		"Seeking a change, they have just stepped into a quiet, sun-drenched yoga studio for the first time. "+
		"Describe the peaceful atmosphere, the scent of incense, and their feeling of nervous hope.", journey.ModuleName(0))
}

// NextStepPrompt asks what follows the player's action.
func NextStepPrompt(history []string, action string) string {
	return fmt.Sprintf("Here is the story so far:\n%s\n\nThe player's action is: \"%s\"\n\nWhat happens next?",
		strings.Join(history, "\n\n"), action)
}

// ImagePrompt asks for a painting of the current scene.
func ImagePrompt(story string) string {
	return fmt.Sprintf("A serene, calming, and beautiful digital art painting of the following scene: %s. "+
		"Soft, warm lighting, gentle colors, painterly style, focused on tranquility and mindfulness.", story)
}

func formatRelationships(affinities map[string]int) string {
	names := make([]string, 0, len(affinities))
	for name := range affinities {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %d", name, affinities[name]))
	}
	return strings.Join(parts, ", ")
}
