package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running journey API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	PlayerOverride    string
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           StepTimeout,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := yaml.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// sequences may reference other sequences
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite starts a fresh journey, waits for the opening, then runs each step.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	player := suite.Player
	if r.PlayerOverride != "" {
		player = r.PlayerOverride
	}

	journeyID, err := CreateJourney(ctx, r.Client, r.BaseURL, player)
	if err != nil {
		result.Error = fmt.Errorf("failed to create journey: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.JourneyID = journeyID

	if _, err := PollForStep(ctx, r.Client, r.BaseURL, journeyID, 0, r.Timeout); err != nil {
		result.Error = fmt.Errorf("opening never arrived: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, journeyID, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep retries once when the worker reports a failure banner or the
// wait times out, since story generation is not deterministic.
func (r *Runner) runStep(ctx context.Context, journeyID uuid.UUID, step TestStep) TestResult {
	var result TestResult
	for attempt := 1; attempt <= 2; attempt++ {
		result = r.executeStep(ctx, journeyID, step)
		if result.Success || !isRetryable(result.Error) {
			return result
		}
		r.Logger("    Retrying step: %s (%v)", step.Name, result.Error)
	}
	return result
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var failed *ErrStepFailed
	return errors.As(err, &failed) || strings.Contains(err.Error(), "timeout waiting for journey update")
}

func (r *Runner) executeStep(ctx context.Context, journeyID uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	finish := func(err error) TestResult {
		result.Error = err
		result.Success = err == nil
		result.Duration = time.Since(start)
		return result
	}

	if len(step.Buy) > 0 {
		if err := BuyProducts(ctx, r.Client, r.BaseURL, journeyID, step.Buy); err != nil {
			return finish(err)
		}
	}

	var post *journey.GameState
	if step.Action != "" {
		pre, err := GetJourney(ctx, r.Client, r.BaseURL, journeyID)
		if err != nil {
			return finish(fmt.Errorf("failed to get journey before action: %w", err))
		}

		requestID, err := PostAction(ctx, r.Client, r.BaseURL, journeyID, step.Action)
		if err != nil {
			return finish(fmt.Errorf("failed to post action: %w", err))
		}
		result.RequestID = requestID

		post, err = PollForStep(ctx, r.Client, r.BaseURL, journeyID, len(pre.Log), r.Timeout)
		if err != nil {
			return finish(fmt.Errorf("failed waiting for step: %w", err))
		}
	} else {
		var err error
		post, err = GetJourney(ctx, r.Client, r.BaseURL, journeyID)
		if err != nil {
			return finish(fmt.Errorf("failed to get journey: %w", err))
		}
	}
	result.Story = post.Story

	if err := checkExpectations(step.Expectations, post); err != nil {
		return finish(fmt.Errorf("expectation failed: %w", err))
	}
	return finish(nil)
}

// checkExpectations validates a step's expectations against the journey
func checkExpectations(exp Expectations, gs *journey.GameState) error {
	if exp.ModuleIndexAtLeast != nil && gs.CurrentModuleIndex < *exp.ModuleIndexAtLeast {
		return fmt.Errorf("expected module index >= %d, got %d", *exp.ModuleIndexAtLeast, gs.CurrentModuleIndex)
	}

	if len(exp.Inventory) > 0 {
		expected := slices.Sorted(slices.Values(exp.Inventory))
		actual := slices.Sorted(slices.Values(gs.Inventory))
		if !slices.Equal(expected, actual) {
			return fmt.Errorf("expected inventory %v, got %v", exp.Inventory, gs.Inventory)
		}
	}

	for _, item := range exp.InventoryContains {
		if !slices.Contains(gs.Inventory, item) {
			return fmt.Errorf("expected inventory to contain '%s', but it's missing. Actual inventory: %v", item, gs.Inventory)
		}
	}

	for _, badge := range exp.BadgesContain {
		if !slices.Contains(gs.Badges, badge) {
			return fmt.Errorf("expected badge '%s', got %v", badge, gs.Badges)
		}
	}

	for _, id := range exp.LibraryContains {
		if !gs.Owns(id) {
			return fmt.Errorf("expected product %d in library", id)
		}
	}

	if exp.IsGameOver != nil && gs.IsGameOver != *exp.IsGameOver {
		return fmt.Errorf("expected is_game_over to be %t, got %t", *exp.IsGameOver, gs.IsGameOver)
	}

	if exp.NoError && gs.LastError != "" {
		return fmt.Errorf("expected no error, got %q", gs.LastError)
	}

	story := strings.ToLower(gs.Story)
	for _, text := range exp.StoryContains {
		if !strings.Contains(story, strings.ToLower(text)) {
			return fmt.Errorf("expected story to contain '%s', but it didn't", text)
		}
	}
	for _, text := range exp.StoryNotContains {
		if strings.Contains(story, strings.ToLower(text)) {
			return fmt.Errorf("expected story to NOT contain '%s', but it did", text)
		}
	}

	if exp.StoryRegex != "" {
		matched, err := regexp.MatchString(exp.StoryRegex, gs.Story)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("story didn't match regex pattern: %s", exp.StoryRegex)
		}
	}

	if exp.StoryMinLength != nil && len(gs.Story) < *exp.StoryMinLength {
		return fmt.Errorf("expected story length >= %d, got %d", *exp.StoryMinLength, len(gs.Story))
	}
	if exp.StoryMaxLength != nil && len(gs.Story) > *exp.StoryMaxLength {
		return fmt.Errorf("expected story length <= %d, got %d", *exp.StoryMaxLength, len(gs.Story))
	}

	return nil
}
