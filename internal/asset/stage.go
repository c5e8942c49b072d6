package asset

import (
	"context"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Stage transforms one file. Returning a nil file drops it from the pipeline.
type Stage interface {
	Name() string
	Apply(ctx context.Context, f *File) (*File, error)
}

type stageFunc struct {
	name string
	fn   func(ctx context.Context, f *File) (*File, error)
}

func (s stageFunc) Name() string { return s.name }

func (s stageFunc) Apply(ctx context.Context, f *File) (*File, error) { return s.fn(ctx, f) }

// NewStage adapts a function to the Stage interface.
func NewStage(name string, fn func(ctx context.Context, f *File) (*File, error)) Stage {
	return stageFunc{name: name, fn: fn}
}

// Pipe applies stages to each file in declared order and returns the files
// that made it through every stage. The first stage error aborts the pipe.
func Pipe(ctx context.Context, files []*File, stages ...Stage) ([]*File, error) {
	out := make([]*File, 0, len(files))
	for _, f := range files {
		cur := f
		for _, st := range stages {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			next, err := st.Apply(ctx, cur)
			if err != nil {
				if ce, ok := ferrors.AsClassified(err); ok {
					return out, ce.WithContext("stage", st.Name()).WithContext("path", cur.Rel)
				}
				return out, ferrors.WrapError(err, ferrors.CategoryTask, "stage failed").
					WithContext("stage", st.Name()).
					WithContext("path", cur.Rel).
					Build()
			}
			if next == nil {
				cur = nil
				break
			}
			cur = next
		}
		if cur != nil {
			out = append(out, cur)
		}
	}
	return out, nil
}
