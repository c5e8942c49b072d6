package tasks

import (
	"context"
	"os"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// clean removes the output directory. An absent directory is success.
func (s *Set) clean(ctx context.Context) error {
	if err := s.layout.Validate(); err != nil {
		return err
	}
	dir := s.layout.Dest()
	if err := os.RemoveAll(dir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove output directory").
			WithContext("path", dir).Build()
	}
	s.logger.DebugContext(ctx, "Removed output directory", logfields.Path(dir), logfields.BuildID(BuildID(ctx)))
	return nil
}
