package transform

import (
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
	"go.uber.org/multierr"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// ScriptLinter reports JavaScript files that do not parse.
type ScriptLinter struct{}

// Check parses one file. Non-JavaScript files are ignored.
func (ScriptLinter) Check(f *asset.File) error {
	switch f.Ext() {
	case ".js", ".mjs", ".cjs":
	default:
		return nil
	}
	if _, err := js.Parse(parse.NewInputBytes(f.Contents), js.Options{}); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryTask, "script syntax error").
			WithContext("path", f.Rel).Build()
	}
	return nil
}

// Lint checks every file and returns all failures combined.
func (l ScriptLinter) Lint(files []*asset.File) error {
	var errs error
	for _, f := range files {
		errs = multierr.Append(errs, l.Check(f))
	}
	return errs
}
