// Package saga runs a multi-step workflow that has no cross-step atomicity.
// Each step pairs its action with a compensating action; when a later step
// fails, the compensations of every completed step run in reverse order.
// Compensation failures are aggregated with the primary error instead of
// masking it, so callers always learn which sub-step actually failed.
package saga

import (
	"context"
	"fmt"
	"strings"
)

// Step is one unit of a saga.
type Step struct {
	Name string
	// Run performs the step's action.
	Run func(ctx context.Context) error
	// Compensate reverses Run. Nil means the step cannot be reversed.
	Compensate func(ctx context.Context) error
	// ContinueOnError marks a step whose failure is recorded as a warning
	// and does not abort the saga or trigger compensation.
	ContinueOnError bool
}

// AbortedError reports which step failed and what happened while unwinding.
type AbortedError struct {
	Step             string
	Cause            error
	CompensationErrs []error
}

func (e *AbortedError) Error() string {
	msg := fmt.Sprintf("saga aborted at step %q: %v", e.Step, e.Cause)
	if len(e.CompensationErrs) > 0 {
		parts := make([]string, 0, len(e.CompensationErrs))
		for _, ce := range e.CompensationErrs {
			parts = append(parts, ce.Error())
		}
		msg += " (compensation failures: " + strings.Join(parts, "; ") + ")"
	}
	return msg
}

func (e *AbortedError) Unwrap() error { return e.Cause }

// Execute runs steps in order. On a blocking failure it compensates the
// already-completed steps in reverse order and returns an *AbortedError
// wrapping the step's failure. Failures of ContinueOnError steps are
// returned as warnings alongside a nil error.
func Execute(ctx context.Context, steps []Step) (warnings []error, err error) {
	completed := make([]Step, 0, len(steps))
	for _, step := range steps {
		if runErr := step.Run(ctx); runErr != nil {
			if step.ContinueOnError {
				warnings = append(warnings, fmt.Errorf("step %q: %w", step.Name, runErr))
				continue
			}
			aborted := &AbortedError{Step: step.Name, Cause: runErr}
			for i := len(completed) - 1; i >= 0; i-- {
				comp := completed[i].Compensate
				if comp == nil {
					continue
				}
				if compErr := comp(ctx); compErr != nil {
					aborted.CompensationErrs = append(aborted.CompensationErrs,
						fmt.Errorf("compensate %q: %w", completed[i].Name, compErr))
				}
			}
			return warnings, aborted
		}
		completed = append(completed, step)
	}
	return warnings, nil
}
