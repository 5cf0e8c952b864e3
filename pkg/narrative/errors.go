package narrative

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownAction is returned when an action symbol is not one of the story's actions.
	ErrUnknownAction = errors.New("unknown action symbol")
	// ErrIndexOutOfRange is returned for node indices outside the graph.
	ErrIndexOutOfRange = errors.New("node index out of range")
)

// ValidationError collects every problem found in a story definition.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid story:\n  - " + strings.Join(e.Problems, "\n  - ")
}

func (e *ValidationError) add(problem string) {
	e.Problems = append(e.Problems, problem)
}
