package flow

import (
	"context"
	"strings"
)

// Node is anything the Engine can run: a *Task, a *Series or a *Parallel.
type Node interface {
	Name() string
}

// Func performs one unit of work. It must return once the work is complete.
type Func func(ctx context.Context) error

// Task is a named leaf unit of work.
type Task struct {
	name        string
	description string
	fn          Func
}

// NewTask creates a leaf task.
func NewTask(name, description string, fn Func) *Task {
	return &Task{name: name, description: description, fn: fn}
}

func (t *Task) Name() string        { return t.name }
func (t *Task) Description() string { return t.description }

// Series runs its steps in declared order with no overlap.
type Series struct {
	name        string
	description string
	steps       []Node
}

// NewSeries creates a sequential composite. An empty name is derived from the steps.
func NewSeries(name string, steps ...Node) *Series {
	if name == "" {
		name = compositeName("series", steps)
	}
	return &Series{name: name, steps: steps}
}

// Describe sets the description shown by the task listing.
func (s *Series) Describe(d string) *Series {
	s.description = d
	return s
}

func (s *Series) Name() string        { return s.name }
func (s *Series) Description() string { return s.description }
func (s *Series) Steps() []Node       { return s.steps }

// Parallel starts all of its steps together.
type Parallel struct {
	name        string
	description string
	steps       []Node
}

// NewParallel creates a concurrent composite. An empty name is derived from the steps.
func NewParallel(name string, steps ...Node) *Parallel {
	if name == "" {
		name = compositeName("parallel", steps)
	}
	return &Parallel{name: name, steps: steps}
}

// Describe sets the description shown by the task listing.
func (p *Parallel) Describe(d string) *Parallel {
	p.description = d
	return p
}

func (p *Parallel) Name() string        { return p.name }
func (p *Parallel) Description() string { return p.description }
func (p *Parallel) Steps() []Node       { return p.steps }

// Describer is implemented by nodes that carry a human description.
type Describer interface {
	Description() string
}

func compositeName(kind string, steps []Node) string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name())
	}
	return kind + "(" + strings.Join(names, ", ") + ")"
}
