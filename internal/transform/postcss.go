package transform

import (
	"context"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
)

// Autoprefixer pipes stylesheets through an external PostCSS command that
// reads stdin and writes stdout. With no command configured it passes
// files through.
type Autoprefixer struct {
	argv   []string
	runner Runner
}

func NewAutoprefixer(command string, runner Runner) (*Autoprefixer, error) {
	a := &Autoprefixer{runner: runner}
	if a.runner == nil {
		a.runner = ExecRunner{}
	}
	if command == "" {
		return a, nil
	}
	argv, err := ParseCommand(command)
	if err != nil {
		return nil, err
	}
	a.argv = argv
	return a, nil
}

func (a *Autoprefixer) Name() string { return "autoprefixer" }

// Enabled reports whether a command is configured.
func (a *Autoprefixer) Enabled() bool { return len(a.argv) > 0 }

func (a *Autoprefixer) Apply(ctx context.Context, f *asset.File) (*asset.File, error) {
	if !a.Enabled() {
		return f, nil
	}
	out, err := a.runner.Run(ctx, a.argv, f.Contents)
	if err != nil {
		return nil, err
	}
	return f.WithContents(out), nil
}
