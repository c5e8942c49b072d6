package flow

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// StepError records which leaf task failed.
type StepError struct {
	Task string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.Task, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// FailedTasks lists the leaf tasks that failed in err, in report order.
// multierr flattens nested parallel failures, so one level is enough.
func FailedTasks(err error) []string {
	var names []string
	for _, e := range multierr.Errors(err) {
		var se *StepError
		if errors.As(e, &se) {
			names = append(names, se.Task)
		}
	}
	return names
}
