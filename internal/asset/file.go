// Package asset models a task as an ordered list of stages applied to every
// matched source file.
//
// Src reads matching files into memory, Pipe pushes each file through the
// stages in declared order, and Dest writes the current contents to an
// output directory while passing the file on, so one pipeline can write the
// same stylesheet to app/css and, after more stages, to dist/css.
package asset

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// File is one source file flowing through a pipeline.
type File struct {
	Base     string // directory the pattern was matched in
	Rel      string // slash-separated path relative to Base
	Contents []byte
	Mode     fs.FileMode
	ModTime  time.Time
}

// Path returns the file's location on disk under Base.
func (f *File) Path() string {
	return filepath.Join(f.Base, filepath.FromSlash(f.Rel))
}

// Ext returns the lower-cased extension of Rel, dot included.
func (f *File) Ext() string {
	return strings.ToLower(path.Ext(f.Rel))
}

// WithContents returns a copy of f carrying data.
func (f *File) WithContents(data []byte) *File {
	c := *f
	c.Contents = data
	return &c
}
