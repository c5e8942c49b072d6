package asset

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// DestStage writes each file under dir and passes it on unchanged.
type DestStage struct {
	dir     string
	written atomic.Int64
}

// Dest returns a stage writing files to dir, creating directories as needed.
func Dest(dir string) *DestStage {
	return &DestStage{dir: dir}
}

func (d *DestStage) Name() string { return "dest" }

// Dir returns the output directory.
func (d *DestStage) Dir() string { return d.dir }

// Written reports how many files this stage has written.
func (d *DestStage) Written() int { return int(d.written.Load()) }

func (d *DestStage) Apply(_ context.Context, f *File) (*File, error) {
	target := filepath.Join(d.dir, filepath.FromSlash(f.Rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			WithContext("dest", target).Build()
	}
	mode := f.Mode
	if mode == 0 {
		mode = 0o644
	}
	if err := os.WriteFile(target, f.Contents, mode); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write output file").
			WithContext("dest", target).Build()
	}
	d.written.Add(1)
	return f, nil
}

// Newer drops files whose counterpart under destDir is at least as recent.
// Files with no counterpart pass through.
func Newer(destDir string) Stage {
	return NewStage("newer", func(_ context.Context, f *File) (*File, error) {
		info, err := os.Stat(filepath.Join(destDir, filepath.FromSlash(f.Rel)))
		if errors.Is(err, fs.ErrNotExist) {
			return f, nil
		}
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat output file").
				WithContext("dest", destDir).Build()
		}
		if !info.ModTime().Before(f.ModTime) {
			return nil, nil
		}
		return f, nil
	})
}

// Rename replaces the extension of each file with ext (".css", for example).
func Rename(ext string) Stage {
	return NewStage("rename", func(_ context.Context, f *File) (*File, error) {
		c := *f
		c.Rel = strings.TrimSuffix(f.Rel, path.Ext(f.Rel)) + ext
		return &c, nil
	})
}

// Filter keeps files for which keep returns true.
func Filter(name string, keep func(*File) bool) Stage {
	return NewStage(name, func(_ context.Context, f *File) (*File, error) {
		if !keep(f) {
			return nil, nil
		}
		return f, nil
	})
}
