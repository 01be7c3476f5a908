package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-turns/internal/handlers"
	"gopkg.in/yaml.v3"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays test suites against a running story-turns API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	StoryOverride     string // If set, overrides the story for all test cases
	KeepSessions      bool   // Skip DELETE after each suite
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 30 * time.Second},
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a YAML or JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := yaml.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	return loadExpanded(filename, casesDir, map[string]bool{})
}

func loadExpanded(filename, casesDir string, loading map[string]bool) ([]TestJob, error) {
	if loading[filename] {
		return nil, fmt.Errorf("sequence cycle through %s", filename)
	}
	loading[filename] = true
	defer delete(loading, filename)

	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	// If this is not a sequence, return it as-is
	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	// This is a sequence - load all referenced cases
	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		subJobs, err := loadExpanded(casePath, casesDir, loading)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite in a fresh session
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	story := suite.Story
	if r.StoryOverride != "" {
		story = r.StoryOverride
	}

	opening, err := CreateSession(ctx, r.Client, r.BaseURL, story, suite.Knot)
	var apiErr *APIError
	if suite.Start.Status != nil && errors.As(err, &apiErr) && apiErr.Status == *suite.Start.Status {
		r.Logger("    Session rejected as expected: %v", err)
		result.Duration = time.Since(start)
		return result, nil
	}
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.SessionID = opening.SessionID

	if !r.KeepSessions {
		defer func() {
			if err := DeleteSession(context.WithoutCancel(ctx), r.Client, r.BaseURL, opening.SessionID); err != nil {
				r.Logger("    Warning: failed to delete session %s: %v", opening.SessionID, err)
			}
		}()
	}

	if err := checkExpectations(suite.Start, opening); err != nil {
		result.Error = fmt.Errorf("opening turn: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, result.SessionID, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			// Break only if error handling mode is "exit"
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

// runStep performs one action and checks its expectations. A step that
// expects a non-200 status passes when the API rejects it with that status.
func (r *Runner) runStep(ctx context.Context, sessionID uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	switch step.Action {
	case ActionContinue, ActionChoose, ActionRestart:
	default:
		result.Error = fmt.Errorf("unknown action %q", step.Action)
		result.Duration = time.Since(start)
		return result
	}

	wantStatus := http.StatusOK
	if step.Expect.Status != nil {
		wantStatus = *step.Expect.Status
	}

	resp, err := PostAction(ctx, r.Client, r.BaseURL, sessionID, step.Action, step.Index)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == wantStatus {
			result.Success = true
			result.Duration = time.Since(start)
			return result
		}
		result.Error = fmt.Errorf("%s failed: %w", step.Action, err)
		result.Duration = time.Since(start)
		return result
	}
	if wantStatus != http.StatusOK {
		result.Error = fmt.Errorf("expected status %d, got 200", wantStatus)
		result.Duration = time.Since(start)
		return result
	}

	result.DisplayText = resp.View.DisplayText
	if err := checkExpectations(step.Expect, resp); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// checkExpectations validates the expectations against a session response
func checkExpectations(exp Expect, resp *handlers.SessionResponse) error {
	view := resp.View

	if exp.Location != nil && view.Location != *exp.Location {
		return fmt.Errorf("expected location %s, got %s", *exp.Location, view.Location)
	}
	if exp.TimeOfDay != nil && view.TimeOfDay != *exp.TimeOfDay {
		return fmt.Errorf("expected time_of_day %s, got %s", *exp.TimeOfDay, view.TimeOfDay)
	}
	if exp.Vitality != nil && view.Vitality != *exp.Vitality {
		return fmt.Errorf("expected vitality %d, got %d", *exp.Vitality, view.Vitality)
	}
	if exp.HasMagicWater != nil && view.HasMagicWater != *exp.HasMagicWater {
		return fmt.Errorf("expected has_magic_water to be %t, got %t", *exp.HasMagicWater, view.HasMagicWater)
	}
	if exp.GnomeFriendship != nil && view.GnomeFriendship != *exp.GnomeFriendship {
		return fmt.Errorf("expected gnome_friendship %d, got %d", *exp.GnomeFriendship, view.GnomeFriendship)
	}
	if exp.Turn != nil && view.Turn != *exp.Turn {
		return fmt.Errorf("expected turn %d, got %d", *exp.Turn, view.Turn)
	}
	if exp.Ended != nil && view.Ended != *exp.Ended {
		return fmt.Errorf("expected ended to be %t, got %t", *exp.Ended, view.Ended)
	}
	if exp.CanContinue != nil && view.CanContinue != *exp.CanContinue {
		return fmt.Errorf("expected can_continue to be %t, got %t", *exp.CanContinue, view.CanContinue)
	}
	if exp.Choices != nil && len(view.Choices) != *exp.Choices {
		return fmt.Errorf("expected %d choices, got %d", *exp.Choices, len(view.Choices))
	}

	if len(exp.ChoiceTexts) > 0 {
		var got []string
		for _, c := range view.Choices {
			got = append(got, c.Text)
		}
		if strings.Join(got, "\n") != strings.Join(exp.ChoiceTexts, "\n") {
			return fmt.Errorf("expected choices %q, got %q", exp.ChoiceTexts, got)
		}
	}

	lowerText := strings.ToLower(view.DisplayText)
	for _, expectedText := range exp.TextContains {
		if !strings.Contains(lowerText, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected text to contain '%s', but it didn't", expectedText)
		}
	}
	for _, unexpectedText := range exp.TextNotContains {
		if strings.Contains(lowerText, strings.ToLower(unexpectedText)) {
			return fmt.Errorf("expected text to NOT contain '%s', but it did", unexpectedText)
		}
	}

	if exp.TextRegex != "" {
		matched, err := regexp.MatchString(exp.TextRegex, view.DisplayText)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("text didn't match regex pattern: %s", exp.TextRegex)
		}
	}

	for _, i := range exp.DisabledButtons {
		if i < 0 || i >= len(resp.Buttons) {
			return fmt.Errorf("expected button %d to exist, only %d buttons", i, len(resp.Buttons))
		}
		if resp.Buttons[i].Enabled {
			return fmt.Errorf("expected button %d (%s) to be disabled", i, resp.Buttons[i].Label)
		}
	}

	return nil
}
