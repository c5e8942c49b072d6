package tasks

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/assetpipe/internal/flow"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// Runner runs registered nodes on an engine, tagging each run with a new
// build ID.
type Runner struct {
	engine   *flow.Engine
	registry *flow.Registry
	logger   *slog.Logger
}

// NewRunner creates a Runner. A nil logger means slog.Default().
func NewRunner(engine *flow.Engine, registry *flow.Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{engine: engine, registry: registry, logger: logger}
}

// Registry returns the registry names are resolved against.
func (r *Runner) Registry() *flow.Registry { return r.registry }

// Resolve looks up names and returns one node running them. Several names
// run in series unless parallel is set.
func (r *Runner) Resolve(parallel bool, names ...string) (flow.Node, error) {
	if len(names) == 0 {
		names = []string{Default}
	}
	nodes := make([]flow.Node, 0, len(names))
	for _, name := range names {
		n, err := r.registry.Get(name)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	if parallel {
		return flow.NewParallel("", nodes...), nil
	}
	return flow.NewSeries("", nodes...), nil
}

// RunNames resolves names and runs them.
func (r *Runner) RunNames(ctx context.Context, parallel bool, names ...string) error {
	n, err := r.Resolve(parallel, names...)
	if err != nil {
		return err
	}
	return r.Run(ctx, n)
}

// Run executes n under a fresh build ID unless ctx already carries one.
func (r *Runner) Run(ctx context.Context, n flow.Node) error {
	ctx, id := r.begin(ctx)
	start := time.Now()
	err := r.engine.Run(ctx, n)
	r.end(ctx, n, id, time.Since(start), err)
	return err
}

// Start executes n asynchronously under a fresh build ID.
func (r *Runner) Start(ctx context.Context, n flow.Node) *flow.Handle {
	ctx, id := r.begin(ctx)
	h := r.engine.Start(ctx, n)
	go func() {
		<-h.Done()
		r.end(ctx, n, id, h.Duration(), h.Err())
	}()
	return h
}

// begin keeps a build ID already chosen by the caller.
func (r *Runner) begin(ctx context.Context) (context.Context, string) {
	if id := BuildID(ctx); id != "" {
		return ctx, id
	}
	id := NewBuildID()
	return WithBuildID(ctx, id), id
}

func (r *Runner) end(ctx context.Context, n flow.Node, id string, d time.Duration, err error) {
	if n == nil {
		return
	}
	if err != nil {
		r.logger.DebugContext(ctx, "Run failed",
			logfields.Task(n.Name()), logfields.BuildID(id), logfields.Duration(d),
			slog.Any("failed", flow.FailedTasks(err)))
		return
	}
	r.logger.DebugContext(ctx, "Run complete", logfields.Task(n.Name()), logfields.BuildID(id), logfields.Duration(d))
}
