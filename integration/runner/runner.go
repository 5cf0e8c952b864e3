package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-graph/internal/services"
	"gopkg.in/yaml.v3"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running story-graph API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	StoryOverride     string // If set, overrides the story for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 30 * time.Second},
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON or YAML file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(&suite); err != nil {
			return TestSuite{}, fmt.Errorf("failed to parse YAML in %s: %w", filename, err)
		}
	default:
		if err := json.Unmarshal(content, &suite); err != nil {
			return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
		}
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
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

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
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

	view, err := CreateSession(ctx, r.Client, r.BaseURL, story)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = view.ID

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		var stepResult TestResult
		if step.Action == ResetSessionAction {
			stepResult = r.resetSession(ctx, &result, story, step)
		} else {
			stepResult = r.runStep(ctx, result.Session, step)
		}
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

	if err := DeleteSession(context.WithoutCancel(ctx), r.Client, r.BaseURL, result.Session); err != nil {
		r.Logger("    Warning: failed to delete session %s: %v", result.Session, err)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// resetSession replaces the suite's session with a fresh one on the same story
func (r *Runner) resetSession(ctx context.Context, run *TestRunResult, story string, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name, IsReset: true}

	if err := DeleteSession(ctx, r.Client, r.BaseURL, run.Session); err != nil {
		result.Error = fmt.Errorf("failed to delete session: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	view, err := CreateSession(ctx, r.Client, r.BaseURL, story)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}
	run.Session = view.ID

	if err := checkView(step.Expectations, view); err != nil {
		result.Error = fmt.Errorf("reset expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Text = view.Text
	result.Duration = time.Since(start)
	return result
}

// runStep applies one action and checks expectations
func (r *Runner) runStep(ctx context.Context, id uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	advanced, err := Advance(ctx, r.Client, r.BaseURL, id, step.Action)
	if err != nil {
		var statusErr *StatusError
		if step.Expectations.Status != nil && errors.As(err, &statusErr) && statusErr.Status == *step.Expectations.Status {
			result.Success = true
			result.Duration = time.Since(start)
			return result
		}
		result.Error = fmt.Errorf("failed to advance: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	result.Text = advanced.View.Text

	if err := checkExpectations(step.Expectations, advanced); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// checkExpectations validates the step expectations against an advance result
func checkExpectations(exp Expectations, res *services.AdvanceResult) error {
	if exp.Status != nil && *exp.Status != http.StatusOK {
		return fmt.Errorf("expected status %d, got %d", *exp.Status, http.StatusOK)
	}

	if exp.Outcome != nil && res.Transition != *exp.Outcome {
		return fmt.Errorf("expected outcome %s, got %s", *exp.Outcome, res.Transition)
	}

	if len(exp.ResponseCueIn) > 0 && !slices.Contains(exp.ResponseCueIn, res.ResponseCue) {
		return fmt.Errorf("expected response cue in %v, got '%s'", exp.ResponseCueIn, res.ResponseCue)
	}

	if res.View == nil {
		return fmt.Errorf("response has no session")
	}
	return checkView(exp, res.View)
}

// checkView validates the session-level expectations
func checkView(exp Expectations, view *services.SessionView) error {
	if view.Session == nil {
		return fmt.Errorf("response has no session")
	}

	if exp.Cursor != nil && view.Cursor != *exp.Cursor {
		return fmt.Errorf("expected cursor %d, got %d", *exp.Cursor, view.Cursor)
	}

	if exp.Turn != nil && view.Turn != *exp.Turn {
		return fmt.Errorf("expected turn %d, got %d", *exp.Turn, view.Turn)
	}

	if exp.Ended != nil && view.Ended != *exp.Ended {
		return fmt.Errorf("expected ended to be %t, got %t", *exp.Ended, view.Ended)
	}

	if exp.AudioCue != nil && view.AudioCue != *exp.AudioCue {
		return fmt.Errorf("expected audio cue '%s', got '%s'", *exp.AudioCue, view.AudioCue)
	}

	if exp.Choices != nil && len(view.Choices) != *exp.Choices {
		return fmt.Errorf("expected %d choices, got %d", *exp.Choices, len(view.Choices))
	}

	lowerText := strings.ToLower(view.Text)
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

	return nil
}
