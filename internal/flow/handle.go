package flow

import (
	"context"
	"sync"
	"time"
)

// Handle is the completion handle of an asynchronously started node.
type Handle struct {
	name    string
	started time.Time
	done    chan struct{}

	mu       sync.Mutex
	err      error
	finished time.Time
}

func newHandle(name string) *Handle {
	return &Handle{name: name, started: time.Now(), done: make(chan struct{})}
}

func (h *Handle) complete(err error) {
	h.mu.Lock()
	h.err = err
	h.finished = time.Now()
	h.mu.Unlock()
	close(h.done)
}

// Name returns the name of the node being run.
func (h *Handle) Name() string { return h.name }

// Done is closed once the node has completed.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until completion and returns the node's error.
func (h *Handle) Wait() error {
	<-h.done
	return h.Err()
}

// WaitContext is Wait bounded by ctx; it returns ctx.Err() if ctx ends first.
func (h *Handle) WaitContext(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the node's error, or nil while it is still running.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Duration returns the run time so far, or the total once complete.
func (h *Handle) Duration() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished.IsZero() {
		return time.Since(h.started)
	}
	return h.finished.Sub(h.started)
}
