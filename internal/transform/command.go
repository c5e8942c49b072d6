package transform

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Runner executes an external program, feeding stdin and returning stdout.
type Runner interface {
	Run(ctx context.Context, argv []string, stdin []byte) ([]byte, error)
}

// ExecRunner runs programs with os/exec from Dir.
type ExecRunner struct {
	Dir string
}

func (r ExecRunner) Run(ctx context.Context, argv []string, stdin []byte) ([]byte, error) {
	if len(argv) == 0 {
		return nil, ferrors.ValidationError("empty command").Build()
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ferrors.WrapError(err, ferrors.CategoryExternal, "executable not found").
				WithContext("command", argv[0]).Build()
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "command failed"
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryTask, msg).
			WithContext("command", argv[0]).Build()
	}
	return stdout.Bytes(), nil
}

// ParseCommand splits a shell-style command line into argv.
func ParseCommand(line string) ([]string, error) {
	argv, err := shlex.Split(line)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parse command line").
			WithContext("command", line).Build()
	}
	return argv, nil
}
