package journey

// StoryStep is one narrative update produced by the story service.
type StoryStep struct {
	Outcome string `json:"outcome"`
	Story   string `json:"story"`

	InventoryChange struct {
		AddItem    string `json:"addItem,omitempty"`
		RemoveItem string `json:"removeItem,omitempty"`
	} `json:"inventoryChange"`

	RelationshipChange struct {
		CharacterName  string `json:"characterName,omitempty"`
		AffinityChange int    `json:"affinityChange,omitempty"`
		CharacterBio   string `json:"characterBio,omitempty"`
	} `json:"relationshipChange"`

	BadgeEarned      string `json:"badgeEarned,omitempty"`
	IsModuleComplete bool   `json:"isModuleComplete"`
	IsGameOver       bool   `json:"isGameOver"`
}
