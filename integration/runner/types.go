package runner

import (
	"time"

	"github.com/google/uuid"
)

// Step actions. They mirror the session endpoints.
const (
	ActionContinue = "continue"
	ActionChoose   = "choose"
	ActionRestart  = "restart"
)

// TestSuite defines a complete playthrough against one story.
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name" yaml:"name"`
	Story string     `json:"story,omitempty" yaml:"story,omitempty"` // Used for regular tests
	Knot  string     `json:"knot,omitempty" yaml:"knot,omitempty"`   // Optional start knot
	Start Expect     `json:"start,omitempty" yaml:"start,omitempty"` // Checked against the opening turn
	Steps []TestStep `json:"steps,omitempty" yaml:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty" yaml:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single player action and its expected outcome.
// Index is only read for ActionChoose.
type TestStep struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Action string `json:"action" yaml:"action"`
	Index  int    `json:"index,omitempty" yaml:"index,omitempty"`
	Expect Expect `json:"expect" yaml:"expect"`
}

// Expect defines what to check after a step executes. Nil fields are not checked.
type Expect struct {
	Status          *int    `json:"status,omitempty" yaml:"status,omitempty"` // HTTP status, defaults to 200
	Location        *string `json:"location,omitempty" yaml:"location,omitempty"`
	TimeOfDay       *string `json:"time_of_day,omitempty" yaml:"time_of_day,omitempty"`
	Vitality        *int    `json:"vitality,omitempty" yaml:"vitality,omitempty"`
	HasMagicWater   *bool   `json:"has_magic_water,omitempty" yaml:"has_magic_water,omitempty"`
	GnomeFriendship *int    `json:"gnome_friendship,omitempty" yaml:"gnome_friendship,omitempty"`
	Turn            *int    `json:"turn,omitempty" yaml:"turn,omitempty"`
	Ended           *bool   `json:"ended,omitempty" yaml:"ended,omitempty"`
	CanContinue     *bool   `json:"can_continue,omitempty" yaml:"can_continue,omitempty"`
	Choices         *int    `json:"choices,omitempty" yaml:"choices,omitempty"` // Number of choices offered

	// Text analysis
	TextContains    []string `json:"text_contains,omitempty" yaml:"text_contains,omitempty"`
	TextNotContains []string `json:"text_not_contains,omitempty" yaml:"text_not_contains,omitempty"`
	TextRegex       string   `json:"text_regex,omitempty" yaml:"text_regex,omitempty"`
	ChoiceTexts     []string `json:"choice_texts,omitempty" yaml:"choice_texts,omitempty"` // Exact, in order
	DisabledButtons []int    `json:"disabled_buttons,omitempty" yaml:"disabled_buttons,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName    string
	Success     bool
	Error       error
	Duration    time.Duration
	DisplayText string
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
	SessionID uuid.UUID // ID of the session used for this test
}
