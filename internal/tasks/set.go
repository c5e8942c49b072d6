package tasks

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/flow"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/transform"
)

// Task names registered by New.
const (
	Clean       = "clean"
	Images      = "images"
	CSS         = "css"
	HTML        = "html"
	Fonts       = "fonts"
	Video       = "video"
	ScriptsLint = "scripts-lint"
	Scripts     = "scripts"
	JS          = "js"
	Build       = "build"
	Default     = "default"
)

// Set builds the task registry for one project.
type Set struct {
	cfg      *config.Config
	layout   config.Layout
	runner   transform.Runner
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Set.
type Option func(*Set)

// WithCommandRunner replaces the runner used for sass and PostCSS.
func WithCommandRunner(r transform.Runner) Option {
	return func(s *Set) { s.runner = r }
}

// WithRecorder sets the recorder receiving files-written counts.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Set) { s.recorder = r }
}

// WithLogger sets the logger tasks write progress to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Set) { s.logger = l }
}

// New returns the task set for cfg with paths resolved against root.
func New(cfg *config.Config, root string, opts ...Option) *Set {
	s := &Set{
		cfg:      cfg,
		layout:   cfg.Layout(root),
		runner:   transform.ExecRunner{Dir: root},
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Layout returns the resolved project layout.
func (s *Set) Layout() config.Layout { return s.layout }

// Registry builds a registry holding every task and composite. It fails
// when the layout would let clean remove the project or its sources.
func (s *Set) Registry() (*flow.Registry, error) {
	if err := s.layout.Validate(); err != nil {
		return nil, err
	}
	clean := flow.NewTask(Clean, "Remove the output directory", s.clean)
	images := flow.NewTask(Images, "Optimize new or changed images", s.images)
	css := flow.NewTask(CSS, "Compile, prefix and minify stylesheets", s.css)
	html := flow.NewTask(HTML, "Copy top-level HTML pages", s.copyTask(HTML, "", "*.html"))
	fonts := flow.NewTask(Fonts, "Copy fonts", s.copyTask(Fonts, s.cfg.Paths.Fonts, "**/*"))
	video := flow.NewTask(Video, "Copy videos", s.copyTask(Video, s.cfg.Paths.Video, "**/*"))
	lint := flow.NewTask(ScriptsLint, "Check scripts for syntax errors", s.scriptsLint)
	scripts := flow.NewTask(Scripts, "Copy scripts", s.scripts)

	js := flow.NewSeries(JS, lint, scripts).Describe("Lint then copy scripts")
	build := flow.NewSeries(Build,
		clean,
		flow.NewParallel("assets", css, images, js, html, fonts, video),
	).Describe("Clean, then build every asset in parallel")

	reg := flow.NewRegistry()
	if err := reg.Register(clean, images, css, html, fonts, video, lint, scripts, js, build); err != nil {
		return nil, err
	}
	if err := reg.Alias(Default, Build); err != nil {
		return nil, err
	}
	return reg, nil
}

// finish logs and records the outcome of a pipeline that wrote through dest.
func (s *Set) finish(ctx context.Context, task string, dest *asset.DestStage) {
	n := dest.Written()
	s.recorder.AddFilesWritten(task, n)
	s.logger.DebugContext(ctx, "Wrote files",
		logfields.Task(task),
		logfields.BuildID(BuildID(ctx)),
		logfields.Dest(dest.Dir()),
		logfields.Files(n))
}
