package tasks

import (
	"context"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/transform"
)

func (s *Set) scriptsLint(ctx context.Context) error {
	if !config.Enabled(s.cfg.Scripts.Lint) {
		return nil
	}
	files, err := asset.Src(s.layout.Src(s.cfg.Paths.JS), "**/*")
	if err != nil {
		return err
	}
	return transform.ScriptLinter{}.Lint(files)
}

func (s *Set) scripts(ctx context.Context) error {
	files, err := asset.Src(s.layout.Src(s.cfg.Paths.JS), "**/*")
	if err != nil {
		return err
	}
	dest := asset.Dest(s.layout.Dest(s.cfg.Paths.JS))
	if _, err := asset.Pipe(ctx, files, dest); err != nil {
		return err
	}
	s.finish(ctx, Scripts, dest)
	return nil
}
