package usecase

import (
	"errors"
	"fmt"
)

// Step names the state a transfer run was trying to reach.
type Step string

const (
	StepParsed                Step = "parsed"
	StepConnectionEstablished Step = "connection_established"
	StepIdentitiesResolved    Step = "identities_resolved"
	StepPreBalancesReported   Step = "pre_balances_reported"
	StepExecuted              Step = "executed"
	StepPostBalancesReported  Step = "post_balances_reported"
)

// StepError is returned by a failed run. It wraps the first failing step's
// error.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// fail builds a StepError whose cause is tagged with kind, unless the cause
// already carries it.
func fail(step Step, kind, err error) error {
	if !errors.Is(err, kind) {
		err = fmt.Errorf("%w: %w", kind, err)
	}
	return &StepError{Step: step, Err: err}
}

// FailedStep returns the step a run failed at, or "" when err is not a
// StepError.
func FailedStep(err error) Step {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step
	}
	return ""
}
