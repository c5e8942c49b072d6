package metrics

import (
	"context"
	"errors"
	"time"
)

// TaskObserver adapts a Recorder to the task engine's start/complete callbacks.
type TaskObserver struct {
	Recorder Recorder
}

// NewTaskObserver returns an observer forwarding to r (NoopRecorder when nil).
func NewTaskObserver(r Recorder) *TaskObserver {
	if r == nil {
		r = NoopRecorder{}
	}
	return &TaskObserver{Recorder: r}
}

func (o *TaskObserver) OnStart(string) {}

func (o *TaskObserver) OnComplete(task string, d time.Duration, err error) {
	o.Recorder.ObserveTaskDuration(task, d)
	o.Recorder.IncTaskResult(task, ResultFor(err))
}

// ResultFor classifies a task error into a result label.
func ResultFor(err error) ResultLabel {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultFailed
	}
}
