package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special action values that trigger non-advance steps
const (
	ResetSessionAction = "RESET_SESSION"
)

// TestSuite defines a complete integration test story walk.
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name" yaml:"name"`
	Story string     `json:"story,omitempty" yaml:"story,omitempty"` // Used for regular tests
	Steps []TestStep `json:"steps,omitempty" yaml:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty" yaml:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single action and its expected outcomes
// Use action: "RESET_SESSION" to start over with a fresh session
type TestStep struct {
	Name         string       `json:"name,omitempty" yaml:"name,omitempty"`
	Action       string       `json:"action" yaml:"action"`
	Expectations Expectations `json:"expect" yaml:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	Outcome  *string `json:"outcome,omitempty" yaml:"outcome,omitempty"` // "transitioned" or "no_transition"
	Status   *int    `json:"status,omitempty" yaml:"status,omitempty"`   // HTTP status, for expected rejections
	Cursor   *int    `json:"cursor,omitempty" yaml:"cursor,omitempty"`
	Turn     *int    `json:"turn,omitempty" yaml:"turn,omitempty"`
	Ended    *bool   `json:"ended,omitempty" yaml:"ended,omitempty"`
	AudioCue *string `json:"audio_cue,omitempty" yaml:"audio_cue,omitempty"`
	Choices  *int    `json:"choices,omitempty" yaml:"choices,omitempty"` // number of choices at the new node

	// The response cue is random, so only membership can be checked.
	ResponseCueIn []string `json:"response_cue_in,omitempty" yaml:"response_cue_in,omitempty"`

	TextContains    []string `json:"text_contains,omitempty" yaml:"text_contains,omitempty"`
	TextNotContains []string `json:"text_not_contains,omitempty" yaml:"text_not_contains,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	Text     string
	IsReset  bool // True if this was a RESET_SESSION step (should not count toward pass/fail metrics)
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Session  uuid.UUID
	Duration time.Duration
	Error    error
}
