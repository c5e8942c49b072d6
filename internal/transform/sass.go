package transform

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
)

// SassCompiler compiles .scss files through the dart-sass executable.
type SassCompiler struct {
	argv      []string
	style     string
	loadPaths []string
	runner    Runner
}

// NewSassCompiler builds a compiler from a command line such as "sass" or
// "npx sass". Style is passed to --style; loadPaths become --load-path flags.
func NewSassCompiler(command, style string, runner Runner, loadPaths ...string) (*SassCompiler, error) {
	argv, err := ParseCommand(command)
	if err != nil {
		return nil, err
	}
	if style == "" {
		style = "expanded"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &SassCompiler{argv: argv, style: style, loadPaths: loadPaths, runner: runner}, nil
}

func (s *SassCompiler) Name() string { return "sass" }

// IsPartial reports whether rel names a sass partial, which is only
// compiled through the files importing it.
func IsPartial(rel string) bool {
	return strings.HasPrefix(path.Base(rel), "_")
}

// Apply compiles f. The file keeps its name; pipelines follow this stage
// with asset.Rename(".css") and drop partials before it.
func (s *SassCompiler) Apply(ctx context.Context, f *asset.File) (*asset.File, error) {
	argv := append([]string{}, s.argv...)
	argv = append(argv, "--stdin", "--no-source-map", "--style="+s.style)
	if f.Base != "" {
		argv = append(argv, "--load-path="+filepath.Dir(f.Path()))
	}
	for _, p := range s.loadPaths {
		argv = append(argv, "--load-path="+p)
	}
	out, err := s.runner.Run(ctx, argv, f.Contents)
	if err != nil {
		return nil, err
	}
	return f.WithContents(out), nil
}

// NotPartial is a filter predicate keeping everything but sass partials.
func NotPartial(f *asset.File) bool { return !IsPartial(f.Rel) }
