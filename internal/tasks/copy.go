package tasks

import (
	"context"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
	"git.home.luguber.info/inful/assetpipe/internal/flow"
)

// copyTask copies files matching pattern from src/sub to dest/sub.
func (s *Set) copyTask(name, sub, pattern string) flow.Func {
	return func(ctx context.Context) error {
		files, err := asset.Src(s.layout.Src(sub), pattern)
		if err != nil {
			return err
		}
		dest := asset.Dest(s.layout.Dest(sub))
		if _, err := asset.Pipe(ctx, files, dest); err != nil {
			return err
		}
		s.finish(ctx, name, dest)
		return nil
	}
}
