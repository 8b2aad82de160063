package prompts

// Field descriptions for the story step response schema. Every provider
// builds its own schema shape from these.
const (
	DescOutcome          = "A concise, past-tense description of the outcome of the player's action, focusing on their internal state or external progress."
	DescStory            = "The next part of the journey. A detailed, present-tense description of the new setting, feelings, or wellness concepts. This should be 2-3 paragraphs long and have a calming, mindful tone, relating to the current module."
	DescAddItem          = "An item, concept, or skill the player just acquired (e.g., 'yoga mat', 'new mantra', 'breathing technique'). If nothing is added, this should be an empty string."
	DescRemoveItem       = "An item the player just used or let go of. If nothing is removed, this should be an empty string."
	DescCharacterName    = "The name of a non-player character whose relationship with the player has changed. If no relationship changes, this should be an empty string."
	DescAffinityChange   = "The amount to change the affinity score by (e.g., 10 for positive, -5 for negative). If no relationship changes, this should be 0."
	DescCharacterBio     = "A short, one-sentence bio for a character if they are being introduced for the first time. Otherwise, an empty string."
	DescBadgeEarned      = "The name of a badge earned for a special achievement (e.g., 'Ahimsa Advocate', 'Module 10 Complete'). If none is earned, this is an empty string."
	DescIsModuleComplete = "Set to true if the player has successfully understood and completed the current yoga module's lesson through their action. Otherwise, false."
	DescIsGameOver       = "Set to true if the player has completed the final module, found their calling (like becoming a teacher), or decided to abandon the path. Otherwise, false."
)

// StoryStepJSONSchema is the story step response as a JSON Schema document,
// for providers that accept one.
func StoryStepJSONSchema() map[string]any {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	boolean := func(desc string) map[string]any {
		return map[string]any{"type": "boolean", "description": desc}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"outcome": str(DescOutcome),
			"story":   str(DescStory),
			"inventoryChange": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"addItem":    str(DescAddItem),
					"removeItem": str(DescRemoveItem),
				},
				"required":             []string{"addItem", "removeItem"},
				"additionalProperties": false,
			},
			"relationshipChange": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"characterName":  str(DescCharacterName),
					"affinityChange": map[string]any{"type": "integer", "description": DescAffinityChange},
					"characterBio":   str(DescCharacterBio),
				},
				"required":             []string{"characterName", "affinityChange", "characterBio"},
				"additionalProperties": false,
			},
			"badgeEarned":      str(DescBadgeEarned),
			"isModuleComplete": boolean(DescIsModuleComplete),
			"isGameOver":       boolean(DescIsGameOver),
		},
		"required":             StoryStepRequired,
		"additionalProperties": false,
	}
}

// StoryStepRequired lists the top-level fields every response must carry.
var StoryStepRequired = []string{"outcome", "story", "inventoryChange", "relationshipChange", "badgeEarned", "isModuleComplete", "isGameOver"}
