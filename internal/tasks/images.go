package tasks

import (
	"context"

	"github.com/dustin/go-humanize"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/transform"
)

// images optimizes source images that are newer than their output copy.
func (s *Set) images(ctx context.Context) error {
	files, err := asset.Src(s.layout.Src(s.cfg.Paths.Images), "**/*")
	if err != nil {
		return err
	}
	destDir := s.layout.Dest(s.cfg.Paths.Images)
	opt := transform.NewImageOptimizer(transform.ImageOptions{
		GIF:         config.Enabled(s.cfg.Images.GIF),
		PNG:         config.Enabled(s.cfg.Images.PNG),
		SVG:         config.Enabled(s.cfg.Images.SVG),
		JPEGQuality: s.cfg.Images.JPEGQuality,
	})
	dest := asset.Dest(destDir)
	if _, err := asset.Pipe(ctx, files, asset.Newer(destDir), opt, dest); err != nil {
		return err
	}

	n, saved := opt.Summary()
	s.logger.InfoContext(ctx, "Minified images",
		logfields.Task(Images),
		logfields.BuildID(BuildID(ctx)),
		logfields.Files(n),
		"saved", humanize.Bytes(saved))
	s.finish(ctx, Images, dest)
	return nil
}
