package tasks

import (
	"context"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/transform"
)

// css compiles sass/**/*.scss, keeps the expanded result in the source css
// directory, then prefixes and minifies it into the output css directory.
// Partials are only compiled through the files importing them.
func (s *Set) css(ctx context.Context) error {
	sassDir := s.layout.Src(s.cfg.Paths.Sass)
	files, err := asset.Src(sassDir, "**/*.scss")
	if err != nil {
		return err
	}
	compiler, err := transform.NewSassCompiler(s.cfg.CSS.SassCommand, s.cfg.CSS.Style, s.runner, sassDir)
	if err != nil {
		return err
	}
	prefixer, err := transform.NewAutoprefixer(s.cfg.CSS.PostCSSCommand, s.runner)
	if err != nil {
		return err
	}

	expanded := asset.Dest(s.layout.Src(s.cfg.Paths.CSS))
	out := asset.Dest(s.layout.Dest(s.cfg.Paths.CSS))
	stages := []asset.Stage{
		asset.Filter("partials", transform.NotPartial),
		compiler,
		asset.Rename(".css"),
		expanded,
	}
	if config.Enabled(s.cfg.CSS.Autoprefix) {
		stages = append(stages, prefixer)
	}
	if config.Enabled(s.cfg.CSS.Minify) {
		stages = append(stages, transform.NewCSSMinifier())
	}
	stages = append(stages, out)

	if _, err := asset.Pipe(ctx, files, stages...); err != nil {
		return err
	}
	s.finish(ctx, CSS, out)
	return nil
}
