package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Engine runs nodes, reporting each node's lifecycle to its observers.
type Engine struct {
	observers   []Observer
	parallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers an observer notified for every node, composites included.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithParallelism caps how many members of one Parallel composite run at once.
// Zero or negative means unbounded.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		e.parallelism = n
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes n and blocks until it completes.
func (e *Engine) Run(ctx context.Context, n Node) error {
	if n == nil {
		return ferrors.ValidationError("node cannot be nil").Build()
	}
	return e.run(ctx, n)
}

// Start executes n asynchronously and returns its completion handle.
func (e *Engine) Start(ctx context.Context, n Node) *Handle {
	name := ""
	if n != nil {
		name = n.Name()
	}
	h := newHandle(name)
	go func() {
		h.complete(e.Run(ctx, n))
	}()
	return h
}

func (e *Engine) run(ctx context.Context, n Node) error {
	name := n.Name()
	for _, o := range e.observers {
		o.OnStart(name)
	}
	start := time.Now()

	var err error
	switch node := n.(type) {
	case *Task:
		err = e.runTask(ctx, node)
	case *Series:
		err = e.runSeries(ctx, node)
	case *Parallel:
		err = e.runParallel(ctx, node)
	default:
		err = ferrors.InternalError("unsupported node type").
			WithContext("task", name).
			WithContext("type", fmt.Sprintf("%T", n)).
			Build()
	}

	d := time.Since(start)
	for _, o := range e.observers {
		o.OnComplete(name, d, err)
	}
	return err
}

func (e *Engine) runTask(ctx context.Context, t *Task) (err error) {
	if cerr := ctx.Err(); cerr != nil {
		return &StepError{Task: t.name, Err: cerr}
	}
	if t.fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &StepError{Task: t.name, Err: ferrors.InternalError("task panicked").
				WithContext("task", t.name).
				WithContext("panic", fmt.Sprint(r)).
				Build()}
		}
	}()
	if ferr := t.fn(ctx); ferr != nil {
		return &StepError{Task: t.name, Err: ferr}
	}
	return nil
}

// runSeries stops at the first failing step; later steps never start.
func (e *Engine) runSeries(ctx context.Context, s *Series) error {
	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.run(ctx, step); err != nil {
			slog.Debug("Series aborted", "series", s.name, "failed_step", step.Name())
			return err
		}
	}
	return nil
}

// runParallel lets every member settle, then combines failures in declaration order.
func (e *Engine) runParallel(ctx context.Context, p *Parallel) error {
	if len(p.steps) == 0 {
		return nil
	}
	var g errgroup.Group
	if e.parallelism > 0 {
		g.SetLimit(e.parallelism)
	}
	errs := make([]error, len(p.steps))
	for i, step := range p.steps {
		g.Go(func() error {
			errs[i] = e.run(ctx, step)
			return nil
		})
	}
	_ = g.Wait()
	return multierr.Combine(errs...)
}
