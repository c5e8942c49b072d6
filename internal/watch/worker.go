package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/flow"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/notify"
	"git.home.luguber.info/inful/assetpipe/internal/tasks"
)

// worker serializes the runs of one binding.
type worker struct {
	binding  Binding
	sup      *Supervisor
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer

	// reqs holds at most one request, so any number of triggers while a
	// run is in progress produce exactly one follow-up run.
	reqs chan struct{}
}

func newWorker(b Binding, sup *Supervisor) *worker {
	return &worker{binding: b, sup: sup, debounce: sup.debounce, reqs: make(chan struct{}, 1)}
}

// trigger restarts the quiet window.
func (w *worker) trigger() {
	w.sup.recorder.IncWatchTrigger(w.binding.Name)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.request)
}

func (w *worker) request() {
	select {
	case w.reqs <- struct{}{}:
	default:
	}
}

func (w *worker) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.reqs:
			if ctx.Err() != nil {
				return
			}
			w.run(ctx)
		}
	}
}

func (w *worker) run(ctx context.Context) {
	id := tasks.NewBuildID()
	ctx = tasks.WithBuildID(ctx, id)
	target := w.binding.Target.Name()
	log := w.sup.logger.With(logfields.Binding(w.binding.Name), logfields.Task(target), logfields.BuildID(id))

	log.InfoContext(ctx, "Change detected; running task")
	h := w.sup.starter.Start(ctx, w.binding.Target)
	w.sup.track(h)
	err := h.Wait()
	w.sup.untrack(h)

	if err != nil {
		if ctx.Err() != nil {
			log.DebugContext(ctx, "Run interrupted by shutdown")
			return
		}
		log.ErrorContext(ctx, "Watch run failed; still watching",
			slog.Any("failed", flow.FailedTasks(err)),
			logfields.Error(err))
		return
	}
	if w.sup.reloader != nil {
		if rerr := w.sup.reloader.Reload(ctx, notify.NewEvent(target, id)); rerr != nil {
			log.WarnContext(ctx, "Reload notification failed", logfields.Error(rerr))
		}
	}
}
