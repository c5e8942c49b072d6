package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/flow"
	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

const (
	expandedCSS = "body {\n  color: red;\n}\n"
	prefixedCSS = "body {\n  -webkit-box-flex: 1;\n  color: red;\n}\n"
)

// stubTools stands in for the sass and postcss executables.
type stubTools struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (s *stubTools) Run(_ context.Context, argv []string, stdin []byte) ([]byte, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[argv[0]]++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if argv[0] == "postcss" {
		return []byte(prefixedCSS), nil
	}
	return []byte(expandedCSS), nil
}

func (s *stubTools) count(tool string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[tool]
}

// eventLog records observer callbacks in arrival order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) OnStart(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, "start:"+name)
}

func (l *eventLog) OnComplete(name string, _ time.Duration, _ error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, "end:"+name)
}

func (l *eventLog) index(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.events {
		if e == event {
			return i
		}
	}
	return -1
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func scaffold(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app", "sass", "style.scss"), "@use 'vars';\nbody { color: vars.$c; }\n")
	writeFile(t, filepath.Join(root, "app", "sass", "_vars.scss"), "$c: red;\n")
	writeFile(t, filepath.Join(root, "app", "images", "photo.jpg"), "jpeg-bytes")
	writeFile(t, filepath.Join(root, "app", "js", "main.js"), "const a = 1;\n")
	writeFile(t, filepath.Join(root, "app", "index.html"), "<html><body></body></html>")
	writeFile(t, filepath.Join(root, "app", "fonts", "body.woff2"), "font")
	writeFile(t, filepath.Join(root, "app", "video", "intro.mp4"), "video")
	return root
}

type fixture struct {
	root   string
	tools  *stubTools
	events *eventLog
	runner *Runner
}

func newFixture(t *testing.T, root string) *fixture {
	t.Helper()
	return newFixtureWith(t, root, config.Default())
}

func newFixtureWith(t *testing.T, root string, cfg *config.Config) *fixture {
	t.Helper()
	tools := &stubTools{}
	events := &eventLog{}
	reg, err := New(cfg, root, WithCommandRunner(tools)).Registry()
	require.NoError(t, err)
	engine := flow.NewEngine(flow.WithObserver(events))
	return &fixture{root: root, tools: tools, events: events, runner: NewRunner(engine, reg, nil)}
}

func (f *fixture) exists(elem ...string) bool {
	_, err := os.Stat(filepath.Join(append([]string{f.root}, elem...)...))
	return err == nil
}

func TestRegistryNames(t *testing.T) {
	reg, err := New(config.Default(), t.TempDir()).Registry()
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "clean", "css", "fonts", "html", "images", "js", "scripts", "scripts-lint", "video"}, reg.Names())

	n, err := reg.Get(Default)
	require.NoError(t, err)
	assert.Equal(t, Build, n.Name())
}

func TestCleanIsIdempotent(t *testing.T) {
	f := newFixture(t, t.TempDir())
	writeFile(t, filepath.Join(f.root, "dist", "css", "old.css"), "x")

	require.NoError(t, f.runner.RunNames(t.Context(), false, Clean))
	assert.False(t, f.exists("dist"))
	require.NoError(t, f.runner.RunNames(t.Context(), false, Clean))
}

func TestBuildProducesLayout(t *testing.T) {
	f := newFixture(t, scaffold(t))
	writeFile(t, filepath.Join(f.root, "dist", "stale.txt"), "left over")

	require.NoError(t, f.runner.RunNames(t.Context(), false))

	assert.False(t, f.exists("dist", "stale.txt"), "clean must remove stale output")
	for _, p := range [][]string{
		{"dist", "images", "photo.jpg"},
		{"dist", "js", "main.js"},
		{"dist", "index.html"},
		{"dist", "fonts", "body.woff2"},
		{"dist", "video", "intro.mp4"},
	} {
		assert.True(t, f.exists(p...), strings.Join(p, "/"))
	}

	expanded, err := os.ReadFile(filepath.Join(f.root, "app", "css", "style.css"))
	require.NoError(t, err)
	assert.Equal(t, expandedCSS, string(expanded))

	minified, err := os.ReadFile(filepath.Join(f.root, "dist", "css", "style.css"))
	require.NoError(t, err)
	assert.Contains(t, string(minified), "-webkit-box-flex:1", "default build autoprefixes")
	assert.Contains(t, string(minified), "color:red")
	assert.NotContains(t, string(minified), "\n  ")

	assert.False(t, f.exists("dist", "css", "_vars.css"), "partials are not emitted")
	assert.False(t, f.exists("app", "css", "_vars.css"))
	assert.Equal(t, 1, f.tools.count("sass"))
	assert.Equal(t, 1, f.tools.count("postcss"))
}

func TestCSSWithoutAutoprefix(t *testing.T) {
	cfg, err := config.Parse([]byte("css: {autoprefix: false}"))
	require.NoError(t, err)
	f := newFixtureWith(t, scaffold(t), cfg)

	require.NoError(t, f.runner.RunNames(t.Context(), false, CSS))
	minified, err := os.ReadFile(filepath.Join(f.root, "dist", "css", "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", string(minified))
	assert.Equal(t, 0, f.tools.count("postcss"))
}

func TestLayoutAboveRootIsRejected(t *testing.T) {
	root := filepath.Join(t.TempDir(), "site")
	source := filepath.Join(root, "app", "sass", "style.scss")
	writeFile(t, source, "body {}")

	for _, dest := range []string{"..", "../site"} {
		cfg, err := config.Parse([]byte("paths: {dest: " + dest + "}"))
		require.NoError(t, err)
		set := New(cfg, root)

		_, err = set.Registry()
		require.Error(t, err, dest)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

		require.Error(t, set.clean(t.Context()), dest)
		_, err = os.Stat(source)
		require.NoError(t, err, "sources must survive dest %q", dest)
	}
}

func TestBuildCleansBeforeAssets(t *testing.T) {
	f := newFixture(t, scaffold(t))
	require.NoError(t, f.runner.RunNames(t.Context(), false, Build))

	cleanEnd := f.events.index("end:" + Clean)
	require.NotEqual(t, -1, cleanEnd)
	for _, name := range []string{CSS, Images, JS, HTML, Fonts, Video} {
		start := f.events.index("start:" + name)
		require.NotEqual(t, -1, start, name)
		assert.Greater(t, start, cleanEnd, "%s started before clean finished", name)
	}
}

func TestBuildCSSFailureSettlesOtherAssets(t *testing.T) {
	f := newFixture(t, scaffold(t))
	f.tools.err = ferrors.TaskError("Undefined variable").Build()

	err := f.runner.RunNames(t.Context(), false, Build)
	require.Error(t, err)
	assert.Equal(t, []string{CSS}, flow.FailedTasks(err))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTask))

	assert.True(t, f.exists("dist", "index.html"))
	assert.True(t, f.exists("dist", "js", "main.js"))
	assert.False(t, f.exists("dist", "css", "style.css"))
}

func TestJSLintFailureStopsScripts(t *testing.T) {
	root := scaffold(t)
	writeFile(t, filepath.Join(root, "app", "js", "broken.js"), "function ( {")
	f := newFixture(t, root)

	err := f.runner.RunNames(t.Context(), false, JS)
	require.Error(t, err)
	assert.Equal(t, []string{ScriptsLint}, flow.FailedTasks(err))
	assert.False(t, f.exists("dist", "js"))
	assert.Equal(t, -1, f.events.index("start:"+Scripts))
}

func TestRunNamesUnknownTask(t *testing.T) {
	f := newFixture(t, t.TempDir())
	err := f.runner.RunNames(t.Context(), false, "sprites")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestResolveSeveralNames(t *testing.T) {
	f := newFixture(t, t.TempDir())

	n, err := f.runner.Resolve(false, Clean, HTML)
	require.NoError(t, err)
	assert.Equal(t, "series(clean, html)", n.Name())

	n, err = f.runner.Resolve(true, Clean, HTML)
	require.NoError(t, err)
	assert.Equal(t, "parallel(clean, html)", n.Name())
}

func TestStartCarriesBuildID(t *testing.T) {
	ids := make(chan string, 1)
	reg := flow.NewRegistry()
	require.NoError(t, reg.Register(flow.NewTask("probe", "", func(ctx context.Context) error {
		ids <- BuildID(ctx)
		return errors.New("probe failed")
	})))
	r := NewRunner(flow.NewEngine(), reg, nil)

	h := r.Start(t.Context(), reg.MustGet("probe"))
	require.Error(t, h.Wait())
	assert.NotEmpty(t, <-ids)
}
