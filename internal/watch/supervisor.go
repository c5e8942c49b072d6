package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/assetpipe/internal/flow"
	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/notify"
)

// Starter starts a node asynchronously.
type Starter interface {
	Start(ctx context.Context, n flow.Node) *flow.Handle
}

// Supervisor watches binding roots and runs the bound tasks.
type Supervisor struct {
	bindings     []Binding
	starter      Starter
	reloader     notify.Reloader
	recorder     metrics.Recorder
	logger       *slog.Logger
	debounce     time.Duration
	pollInterval time.Duration
	forcePolling bool

	mu       sync.Mutex
	inFlight map[*flow.Handle]struct{}
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithReloader sets the side channel notified after each successful run.
func WithReloader(r notify.Reloader) Option { return func(s *Supervisor) { s.reloader = r } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Supervisor) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDebounce sets the quiet window between the last event and the run.
func WithDebounce(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithPolling sets the poll interval and, with force set, polls every
// binding instead of using fsnotify.
func WithPolling(interval time.Duration, force bool) Option {
	return func(s *Supervisor) {
		if interval > 0 {
			s.pollInterval = interval
		}
		s.forcePolling = force
	}
}

// NewSupervisor creates a supervisor for bindings.
func NewSupervisor(bindings []Binding, starter Starter, opts ...Option) *Supervisor {
	s := &Supervisor{
		bindings:     bindings,
		starter:      starter,
		recorder:     metrics.NoopRecorder{},
		logger:       slog.Default(),
		debounce:     300 * time.Millisecond,
		pollInterval: time.Second,
		inFlight:     make(map[*flow.Handle]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Supervisor) track(h *flow.Handle) {
	s.mu.Lock()
	s.inFlight[h] = struct{}{}
	s.mu.Unlock()
}

func (s *Supervisor) untrack(h *flow.Handle) {
	s.mu.Lock()
	delete(s.inFlight, h)
	s.mu.Unlock()
}

// InFlight reports how many bound tasks are running.
func (s *Supervisor) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Run watches until ctx is canceled, then releases the watcher and poller
// and waits for in-flight runs. Task failures never end Run.
func (s *Supervisor) Run(ctx context.Context) error {
	if len(s.bindings) == 0 {
		return ferrors.ValidationError("no watch bindings configured").Build()
	}

	ctx, cancel := context.WithCancel(ctx)
	workers := make([]*worker, len(s.bindings))
	var wg sync.WaitGroup
	for i, b := range s.bindings {
		workers[i] = newWorker(b, s)
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			w.loop(ctx)
		}(workers[i])
	}
	defer func() {
		cancel()
		for _, w := range workers {
			w.stop()
		}
		wg.Wait()
	}()

	var (
		watcher *fsnotify.Watcher
		polled  []int
	)
	if s.forcePolling {
		for i := range s.bindings {
			polled = append(polled, i)
		}
	} else {
		var err error
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			s.logger.Warn("File watcher unavailable; polling every binding", logfields.Error(err))
			for i := range s.bindings {
				polled = append(polled, i)
			}
		} else {
			defer func() { _ = watcher.Close() }()
			for i, b := range s.bindings {
				if err := addDirsRecursive(watcher, b.Root); err != nil {
					werr := ferrors.WrapError(err, ferrors.CategoryWatch, "cannot watch root").Warning().Build()
					s.logger.Warn("Falling back to polling",
						logfields.Binding(b.Name), logfields.Path(b.Root), logfields.Error(werr))
					polled = append(polled, i)
				}
			}
		}
	}

	if len(polled) > 0 {
		p, err := newPoller(s.pollInterval, s.logger)
		if err != nil {
			return err
		}
		for _, i := range polled {
			if err := p.add(s.bindings[i], workers[i].trigger); err != nil {
				_ = p.stop()
				return err
			}
		}
		p.start()
		defer func() {
			if err := p.stop(); err != nil {
				s.logger.Warn("Poll scheduler shutdown error", logfields.Error(err))
			}
		}()
	}

	for _, b := range s.bindings {
		s.logger.Info("Watching", logfields.Binding(b.Name), logfields.Path(b.Root), logfields.Task(b.Target.Name()))
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	if watcher != nil {
		events, errs = watcher.Events, watcher.Errors
	}
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping watch")
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.handleEvent(watcher, ev, workers)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (s *Supervisor) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event, workers []*worker) {
	if shouldIgnore(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w, ev.Name)
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	s.logger.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
	for _, wk := range workers {
		if wk.binding.Matches(ev.Name) {
			wk.trigger()
		}
	}
}

// addDirsRecursive watches root and every directory below it. It fails when
// root itself cannot be watched.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "watch", Path: root, Err: errors.New("not a directory")}
	}
	if err := w.Add(root); err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == root {
			return nil
		}
		if shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}
