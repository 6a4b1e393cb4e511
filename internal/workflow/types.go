// Package workflow sequences service calls into named business flows and
// records what each step proved.
//
// Workflows thread identifiers and expected values from one step into the
// next. Steps whose result contradicts an expectation are recorded and the
// flow continues; steps whose failure means the environment cannot support
// the flow at all abort it with a *SetupError.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/transport"
)

// Errors returned by the workflow package.
var (
	// ErrSetup is wrapped by every SetupError.
	ErrSetup = errors.New("workflow: setup failed")
	// ErrUnknownWorkflow is returned when a workflow name is not registered.
	ErrUnknownWorkflow = errors.New("workflow: unknown workflow")
)

// SetupError reports a step whose failure aborts the whole workflow: the
// environment is not seeded correctly, so nothing after it is worth checking.
type SetupError struct {
	Workflow string
	Step     string
	Err      error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("workflow %s: setup step %s: %v", e.Workflow, e.Step, e.Err)
}

// Unwrap exposes both ErrSetup and the underlying cause.
func (e *SetupError) Unwrap() []error {
	return []error{ErrSetup, e.Err}
}

func setupFailed(workflow, step string, out domain.Outcome) *SetupError {
	msg := out.Message
	if msg == "" {
		msg = "operation did not succeed"
	}
	return &SetupError{Workflow: workflow, Step: step, Err: errors.New(msg)}
}

// StepEvent describes one completed service call.
type StepEvent struct {
	Workflow string
	Step     string
	Protocol transport.Protocol
	Duration time.Duration
	Outcome  domain.Outcome
}

// Result summarizes one workflow run.
type Result struct {
	Workflow string
	Duration time.Duration
	// Err is non-nil when the workflow aborted.
	Err error
}

// Hooks observe workflow execution. All fields are optional.
type Hooks struct {
	OnWorkflowStart    func(name string)
	OnWorkflowComplete func(res Result)
	OnStep             func(ev StepEvent)
}
