package api

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingName is returned when steps are rendered without a scenario name.
	ErrMissingName = errors.New("scenario name is required to render a definition")
	// ErrEmptyResponse is returned when the upstream answered a write without a resource.
	ErrEmptyResponse = errors.New("upstream returned no resource")
)

// PartialFailureError reports a multi-item operation where some items failed.
type PartialFailureError struct {
	Operation string
	Succeeded int
	Failures  []TagFailure
}

func (e *PartialFailureError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Key, f.Error))
	}
	return fmt.Sprintf("%s: %d succeeded, %d failed (%s)", e.Operation, e.Succeeded, len(e.Failures), strings.Join(msgs, "; "))
}

// IncompleteCreateError reports a scenario that exists upstream although a
// later stage of its creation failed. Retrying the create would duplicate it;
// callers should update ScenarioID instead.
type IncompleteCreateError struct {
	ScenarioID string
	Stage      string
	Err        error
}

func (e *IncompleteCreateError) Error() string {
	return fmt.Sprintf("scenario %s was created but %s failed: %v", e.ScenarioID, e.Stage, e.Err)
}

func (e *IncompleteCreateError) Unwrap() error {
	return e.Err
}
