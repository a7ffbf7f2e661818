package errors

import (
	"errors"
	"fmt"
)

// Step identifies the summarization stage an event failed in.
type Step string

const (
	StepLoad      Step = "load"
	StepDerive    Step = "derive"
	StepSummarize Step = "summarize"
	StepCosmology Step = "cosmology"
	StepProject   Step = "project"
)

// EventError attributes a failure to a single event and the step that failed.
type EventError struct {
	Event string
	Step  Step
	Err   error
}

// Error implements the error interface
func (e *EventError) Error() string {
	return fmt.Sprintf("event %s: %s: %v", e.Event, e.Step, e.Err)
}

// Unwrap exposes the underlying cause
func (e *EventError) Unwrap() error {
	return e.Err
}

// NewEventError wraps err with the event name and failing step.
// A nil err yields nil.
func NewEventError(event string, step Step, err error) error {
	if err == nil {
		return nil
	}
	return &EventError{Event: event, Step: step, Err: err}
}

// FailureReport is the serialisable form of an EventError.
type FailureReport struct {
	Event string    `json:"event"`
	Step  Step      `json:"step"`
	Type  ErrorType `json:"type,omitempty"`
	Cause string    `json:"cause"`
}

// Report converts an error into a FailureReport, filling in whatever
// attribution the error chain carries.
func Report(event string, err error) FailureReport {
	report := FailureReport{Event: event, Cause: err.Error()}

	var eventErr *EventError
	if errors.As(err, &eventErr) {
		report.Event = eventErr.Event
		report.Step = eventErr.Step
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		report.Type = appErr.Type
	}
	return report
}
