package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad task name").Build(), expected: 2},
		{name: "unknown task", err: NotFoundError("task not registered").Build(), expected: 3},
		{name: "config", err: ConfigError("bad yaml").Build(), expected: 7},
		{name: "missing sass binary", err: ExternalError("sass not found").Build(), expected: 8},
		{name: "transform failure", err: TaskError("invalid scss").Build(), expected: 11},
		{name: "wrapped filesystem failure", err: fmt.Errorf("clean: %w", FileSystemError("rm").Build()), expected: 11},
		{name: "server", err: ServerError("port in use").Build(), expected: 12},
		{name: "unclassified", err: errors.New("unknown"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := TaskError("sass compilation failed").WithContext("task", "css").WithContext("path", "style.scss").Build()

	quiet := NewCLIErrorAdapter(false, slog.Default())
	if got := quiet.FormatError(err); got != "Error: [task] sass compilation failed" {
		t.Errorf("unexpected quiet format: %q", got)
	}

	verbose := NewCLIErrorAdapter(true, slog.Default())
	got := verbose.FormatError(err)
	if !strings.Contains(got, "path: style.scss") || !strings.Contains(got, "task: css") {
		t.Errorf("verbose format should list context, got %q", got)
	}
	if strings.Index(got, "path:") > strings.Index(got, "task:") {
		t.Errorf("context keys should be sorted, got %q", got)
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil))).WithOutput(&out)

	code := adapter.Report(TaskError("invalid scss").WithContext("task", "css").Build())
	if code != 11 {
		t.Errorf("expected exit code 11, got %d", code)
	}
	if out.String() != "Error: [task] invalid scss\n" {
		t.Errorf("expected console message, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "task=css") {
		t.Errorf("expected task attribute in log, got %q", logs.String())
	}
	if adapter.Report(nil) != 0 {
		t.Error("nil error should report exit code 0")
	}
}
