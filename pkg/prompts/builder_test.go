package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

func TestBuild_RequiresGameState(t *testing.T) {
	_, err := New().Build()
	assert.Error(t, err)
}

func TestBuild_Opening(t *testing.T) {
	gs := journey.NewGameState("", "")
	p, err := New().WithGameState(gs).Build()
	require.NoError(t, err)

	assert.Contains(t, p.User, "Module 1: The First Breath (Pranayama Basics)")
	assert.Contains(t, p.System, "wellness tools are: [nothing]")
	assert.Contains(t, p.System, "relationships are: [none]")
	assert.Contains(t, p.System, "structured into 100 modules")
}

func TestBuild_NextStep(t *testing.T) {
	gs := journey.NewGameState("", "")
	gs.History = []string{"one", "two", "three"}
	gs.Inventory = []string{"yoga mat", "mantra"}
	gs.Relationships = map[string]journey.Character{
		"Priya": {Affinity: 15},
		"Anand": {Affinity: -5},
	}
	gs.CurrentModuleIndex = 2

	p, err := New().WithGameState(gs).WithAction("stand tall").Build()
	require.NoError(t, err)

	assert.Equal(t, "Here is the story so far:\none\n\ntwo\n\nthree\n\nThe player's action is: \"stand tall\"\n\nWhat happens next?", p.User)
	assert.Contains(t, p.System, "'Module 3: Mountain Pose (Tadasana)'")
	assert.Contains(t, p.System, "[yoga mat, mantra]")
	assert.Contains(t, p.System, "[Anand: -5, Priya: 15]")
}

func TestBuild_HistoryLimit(t *testing.T) {
	gs := journey.NewGameState("", "")
	gs.History = []string{"one", "two", "three"}

	p, err := New().WithGameState(gs).WithAction("breathe").WithHistoryLimit(2).Build()
	require.NoError(t, err)
	assert.False(t, strings.Contains(p.User, "one"))
	assert.Contains(t, p.User, "two\n\nthree")
}

func TestImagePrompt(t *testing.T) {
	p := ImagePrompt("A quiet garden")
	assert.True(t, strings.HasPrefix(p, "A serene, calming, and beautiful digital art painting of the following scene: A quiet garden."))
}

func TestStoryStepJSONSchema(t *testing.T) {
	s := StoryStepJSONSchema()
	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	for _, field := range StoryStepRequired {
		assert.Contains(t, props, field)
	}
}
