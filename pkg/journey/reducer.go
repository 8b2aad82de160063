package journey

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"
)

var (
	ErrNilStep  = errors.New("story step is nil")
	ErrGameOver = errors.New("journey is over")
)

// StepWorker applies one story step to a game state.
type StepWorker struct {
	gs     *GameState
	step   *StoryStep
	logger *slog.Logger
	now    func() time.Time
}

// NewStepWorker creates a worker for applying step to gs. logger may be nil.
func NewStepWorker(gs *GameState, step *StoryStep, logger *slog.Logger) *StepWorker {
	return &StepWorker{
		gs:     gs,
		step:   step,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the clock used for log entry ids and UpdatedAt.
func (sw *StepWorker) WithClock(now func() time.Time) *StepWorker {
	sw.now = now
	return sw
}

// Apply folds the step into the game state. action is the player input that
// produced the step; an empty action is logged as DefaultAction.
func (sw *StepWorker) Apply(action string) error {
	if sw.step == nil {
		return ErrNilStep
	}
	if sw.gs.IsGameOver {
		return ErrGameOver
	}
	if action == "" {
		action = DefaultAction
	}

	sw.applyInventory()
	sw.applyRelationship()
	sw.applyModule()
	sw.applyBadge()

	gs := sw.gs
	now := sw.now()
	gs.Story = sw.step.Story
	gs.History = append(gs.History, sw.step.Story)
	gs.Log = append(gs.Log, LogEntry{
		ID:      now.UnixMilli(),
		Action:  action,
		Outcome: sw.step.Outcome,
	})
	gs.IsGameOver = sw.step.IsGameOver || gs.CurrentModuleIndex >= ModuleCount
	gs.UpdatedAt = now
	return nil
}

func (sw *StepWorker) applyInventory() {
	gs := sw.gs
	if add := strings.ToLower(strings.TrimSpace(sw.step.InventoryChange.AddItem)); add != "" {
		if !slices.Contains(gs.Inventory, add) {
			gs.Inventory = append(gs.Inventory, add)
		}
	}
	if remove := strings.ToLower(strings.TrimSpace(sw.step.InventoryChange.RemoveItem)); remove != "" {
		gs.Inventory = slices.DeleteFunc(gs.Inventory, func(item string) bool {
			return item == remove
		})
	}
	if gs.Inventory == nil {
		gs.Inventory = make([]string, 0)
	}
}

func (sw *StepWorker) applyRelationship() {
	rc := sw.step.RelationshipChange
	name := strings.TrimSpace(rc.CharacterName)
	if name == "" {
		return
	}
	if sw.gs.Relationships == nil {
		sw.gs.Relationships = make(map[string]Character)
	}
	c := sw.gs.Relationships[name]
	c.Affinity += rc.AffinityChange
	if rc.CharacterBio != "" {
		c.Bio = rc.CharacterBio
	}
	sw.gs.Relationships[name] = c
	if sw.logger != nil {
		sw.logger.Debug("Relationship updated",
			"character", name,
			"affinity", c.Affinity,
			"change", rc.AffinityChange)
	}
}

func (sw *StepWorker) applyModule() {
	if !sw.step.IsModuleComplete || sw.gs.CurrentModuleIndex >= ModuleCount {
		return
	}
	sw.gs.CurrentModuleIndex++
	if sw.logger != nil {
		sw.logger.Info("Module completed",
			"journey_id", sw.gs.ID.String(),
			"module_index", sw.gs.CurrentModuleIndex)
	}
}

func (sw *StepWorker) applyBadge() {
	badge := strings.TrimSpace(sw.step.BadgeEarned)
	if badge == "" || slices.Contains(sw.gs.Badges, badge) {
		return
	}
	sw.gs.Badges = append(sw.gs.Badges, badge)
}

// ApplyStep is shorthand for NewStepWorker(gs, step, nil).Apply(action).
func ApplyStep(gs *GameState, step *StoryStep, action string) error {
	return NewStepWorker(gs, step, nil).Apply(action)
}
