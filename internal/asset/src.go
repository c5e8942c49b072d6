package asset

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Src reads every regular file under root matching one of patterns.
// A missing root yields no files. Results are sorted by Rel.
func Src(root string, patterns ...string) ([]*File, error) {
	rels, err := Match(root, patterns...)
	if err != nil {
		return nil, err
	}
	files := make([]*File, 0, len(rels))
	for _, rel := range rels {
		full := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat source file").WithContext("path", full).Build()
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read source file").WithContext("path", full).Build()
		}
		files = append(files, &File{
			Base:     root,
			Rel:      rel,
			Contents: data,
			Mode:     info.Mode().Perm(),
			ModTime:  info.ModTime(),
		})
	}
	return files, nil
}

// Match returns the slash-separated relative paths of regular files under
// root matching any of patterns, deduplicated and sorted.
func Match(root string, patterns ...string) ([]string, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var rels []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid source pattern").
				WithContext("pattern", pattern).
				WithContext("path", root).
				Build()
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				rels = append(rels, m)
			}
		}
	}
	sort.Strings(rels)
	return rels, nil
}
