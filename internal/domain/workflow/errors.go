package workflow

import "errors"

var (
	// ErrInvalidInput indicates an invalid run request.
	ErrInvalidInput = errors.New("invalid workflow input")
	// ErrUnknownSelector indicates a selector name that is not registered.
	ErrUnknownSelector = errors.New("unknown dataset selector")
	// ErrUnknownNode indicates a graph edge or route to a missing step.
	ErrUnknownNode = errors.New("unknown workflow step")
	// ErrDeadEnd indicates a step with neither an edge nor a route.
	ErrDeadEnd = errors.New("workflow step has no outgoing edge")
	// ErrStepLimit indicates a run exceeded the runner's step budget.
	ErrStepLimit = errors.New("workflow step limit exceeded")

	// ErrNoDatasets indicates there was no dataset to select.
	ErrNoDatasets = errors.New("no datasets available")
	// ErrNoResources indicates the selected dataset has no resources.
	ErrNoResources = errors.New("no resources available")
	// ErrDatastoreQuery indicates a DataStore response without records.
	ErrDatastoreQuery = errors.New("datastore query failed")
)

// Messages stored in State.Error for data absence failures.
const (
	MsgNoDatasets          = "No datasets available"
	MsgNoResources         = "No resources available"
	MsgDatastoreFailed     = "DataStore query failed"
	MsgUnexpectedStructure = "Unexpected response structure"
)

// RunError is the failure recorded in a finished run.
type RunError struct {
	Message string
	cause   error
}

func (e *RunError) Error() string {
	return e.Message
}

func (e *RunError) Unwrap() error {
	return e.cause
}
