package config

import (
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Layout resolves the configured relative paths against a project root.
type Layout struct {
	Root  string
	Paths PathsConfig
}

// Layout returns the path resolver for root.
func (c *Config) Layout(root string) Layout {
	return Layout{Root: root, Paths: c.Paths}
}

// Src joins elem onto the source directory.
func (l Layout) Src(elem ...string) string {
	return filepath.Join(append([]string{l.Root, l.Paths.Src}, elem...)...)
}

// Dest joins elem onto the output directory.
func (l Layout) Dest(elem ...string) string {
	return filepath.Join(append([]string{l.Root, l.Paths.Dest}, elem...)...)
}

// Abs resolves a root-relative path; absolute paths are returned cleaned.
func (l Layout) Abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(l.Root, p)
}

// Validate checks the directories once resolved against Root. clean removes
// Dest, so Dest must not be the root, one of its ancestors, or a directory
// holding the sources.
func (l Layout) Validate() error {
	root, err := filepath.Abs(l.Root)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve project root").WithContext("root", l.Root).Build()
	}
	dest := filepath.Join(root, l.Paths.Dest)
	src := filepath.Join(root, l.Paths.Src)
	if within(root, dest) {
		return ferrors.ConfigError("output directory must not contain the project root").
			WithContext("root", root).
			WithContext("dest", dest).
			Build()
	}
	if within(src, dest) {
		return ferrors.ConfigError("output directory must not contain the source directory").
			WithContext("src", src).
			WithContext("dest", dest).
			Build()
	}
	return nil
}

// within reports whether p is dir or lies below it.
func within(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
