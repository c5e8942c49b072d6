package flow

import (
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// Observer is notified when a node starts and completes.
// Callbacks for Parallel members arrive from several goroutines at once.
type Observer interface {
	OnStart(name string)
	OnComplete(name string, d time.Duration, err error)
}

// LogObserver writes one console line per node start and completion.
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver returns a LogObserver on logger, or slog.Default() when nil.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{Logger: logger}
}

func (o *LogObserver) OnStart(name string) {
	o.Logger.Info("Starting task", logfields.Task(name))
}

func (o *LogObserver) OnComplete(name string, d time.Duration, err error) {
	if err == nil {
		o.Logger.Info("Finished task", logfields.Task(name), logfields.Duration(d))
		return
	}
	// Only the leaf that failed logs the cause; composites just report they errored.
	var se *StepError
	if errors.As(err, &se) && se.Task == name {
		o.Logger.Error("Task errored", logfields.Task(name), logfields.Duration(d), logfields.Error(se.Err))
		return
	}
	o.Logger.Warn("Task errored", logfields.Task(name), logfields.Duration(d), slog.Any("failed", FailedTasks(err)))
}
