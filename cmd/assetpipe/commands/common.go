package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/flow"
	"git.home.luguber.info/inful/assetpipe/internal/foundation"
	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/tasks"
	"git.home.luguber.info/inful/assetpipe/internal/version"
)

// Global carries the output streams shared by subcommands.
type Global struct {
	Out    io.Writer
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: <root>/assetpipe.yaml)"`
	Root    string           `short:"C" help:"Project root containing the source directory" default:"." type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" default:"1" help:"Clean, then build every asset in parallel"`
	Clean  CleanCmd  `cmd:"" help:"Remove the output directory"`
	CSS    CSSCmd    `cmd:"" name:"css" help:"Compile, prefix and minify stylesheets"`
	Images ImagesCmd `cmd:"" help:"Optimize new or changed images"`
	JS     JSCmd     `cmd:"" name:"js" help:"Lint then copy scripts"`
	Watch  WatchCmd  `cmd:"" help:"Serve the site and rebuild assets on change"`
	Run    RunCmd    `cmd:"" help:"Run registered tasks by name"`
	List   ListCmd   `cmd:"" help:"List registered tasks"`

	logOut io.Writer
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	out := c.logOut
	if out == nil {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

var logLevels = foundation.NewNormalizer(map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}, slog.LevelInfo)

// parseLogLevel honours --verbose first, then ASSETPIPE_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return logLevels.Normalize(os.Getenv("ASSETPIPE_LOG_LEVEL"))
}

// Execute parses args, runs the selected command and returns the exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	cli := &CLI{logOut: stderr}
	global := &Global{Out: stdout}
	exitCode := -1
	parser, err := kong.New(cli,
		kong.Name("assetpipe"),
		kong.Description("Static site asset pipeline: styles, scripts, images and a live-reload dev server."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
		kong.Bind(global),
	)
	if err != nil {
		_, _ = io.WriteString(stderr, err.Error()+"\n")
		return 1
	}
	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		// --help or --version
		return exitCode
	}
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}
	err = kctx.Run(global, cli)
	return ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).WithOutput(stderr).Report(err)
}

// app is the wiring shared by the task commands.
type app struct {
	cfg      *config.Config
	root     string
	registry *flow.Registry
	runner   *tasks.Runner
	promReg  *prometheus.Registry
	recorder *metrics.PrometheusRecorder
}

func newApp(cli *CLI, logger *slog.Logger) (*app, error) {
	root, err := filepath.Abs(cli.Root)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve project root").Build()
	}
	cfgPath := cli.Config
	if cfgPath == "" {
		cfgPath = filepath.Join(root, config.DefaultFile)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(promReg)
	set := tasks.New(cfg, root, tasks.WithRecorder(recorder), tasks.WithLogger(logger))
	registry, err := set.Registry()
	if err != nil {
		return nil, err
	}
	engine := flow.NewEngine(
		flow.WithObserver(flow.NewLogObserver(logger)),
		flow.WithObserver(metrics.NewTaskObserver(recorder)),
		flow.WithParallelism(cfg.Parallelism),
	)
	return &app{
		cfg:      cfg,
		root:     root,
		registry: registry,
		runner:   tasks.NewRunner(engine, registry, logger),
		promReg:  promReg,
		recorder: recorder,
	}, nil
}
