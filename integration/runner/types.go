package runner

import (
	"time"

	"github.com/google/uuid"
)

// TestSuite defines a complete integration test journey.
// A suite either has Steps or lists other case files in Cases.
type TestSuite struct {
	Name   string     `yaml:"name"`
	Player string     `yaml:"player,omitempty"`
	Steps  []TestStep `yaml:"steps,omitempty"`
	Cases  []string   `yaml:"cases,omitempty"`
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one player interaction. Action submits a story action and
// waits for the worker; Buy adds products to the cart and checks out.
// A step with neither only checks expectations.
type TestStep struct {
	Name         string       `yaml:"name,omitempty"`
	Action       string       `yaml:"action,omitempty"`
	Buy          []int        `yaml:"buy,omitempty"`
	Expectations Expectations `yaml:"expect"`
}

// Expectations defines what to check after a step executes
type Expectations struct {
	ModuleIndexAtLeast *int     `yaml:"module_index_at_least,omitempty"`
	Inventory          []string `yaml:"inventory,omitempty"`          // full contents, order independent
	InventoryContains  []string `yaml:"inventory_contains,omitempty"` // subset
	BadgesContain      []string `yaml:"badges_contain,omitempty"`
	LibraryContains    []int    `yaml:"library_contains,omitempty"` // product ids
	IsGameOver         *bool    `yaml:"is_game_over,omitempty"`
	NoError            bool     `yaml:"no_error,omitempty"`

	StoryContains    []string `yaml:"story_contains,omitempty"`
	StoryNotContains []string `yaml:"story_not_contains,omitempty"`
	StoryRegex       string   `yaml:"story_regex,omitempty"`
	StoryMinLength   *int     `yaml:"story_min_length,omitempty"`
	StoryMaxLength   *int     `yaml:"story_max_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName  string
	RequestID string
	Success   bool
	Error     error
	Duration  time.Duration
	Story     string
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job       TestJob
	Results   []TestResult
	Error     error
	Duration  time.Duration
	JourneyID uuid.UUID
}
