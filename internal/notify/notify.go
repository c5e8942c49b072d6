// Package notify carries reload notifications from finished tasks to
// whoever is listening: browsers on the dev server, and optionally other
// tools subscribed on NATS.
package notify

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// Event describes one completed run that should refresh clients.
type Event struct {
	Task    string    `json:"task"`
	BuildID string    `json:"build_id,omitempty"`
	At      time.Time `json:"at"`
}

// NewEvent stamps an event for task with the current time.
func NewEvent(task, buildID string) Event {
	return Event{Task: task, BuildID: buildID, At: time.Now().UTC()}
}

// Reloader receives reload events.
type Reloader interface {
	Reload(ctx context.Context, ev Event) error
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context, ev Event) error

func (f ReloaderFunc) Reload(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Multi fans an event out to every reloader. Each one is called even when
// an earlier one fails; failures are logged and returned combined.
type Multi []Reloader

func (m Multi) Reload(ctx context.Context, ev Event) error {
	var errs error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Reload(ctx, ev); err != nil {
			slog.WarnContext(ctx, "Reload notification failed", logfields.Task(ev.Task), logfields.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
