package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/devserver"
	"git.home.luguber.info/inful/assetpipe/internal/flow"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/notify"
	"git.home.luguber.info/inful/assetpipe/internal/watch"
)

// WatchCmd runs the watch supervisor and the dev server side by side.
type WatchCmd struct {
	Port         int  `help:"Dev server port (overrides server.port)"`
	NoServer     bool `name:"no-server" help:"Only watch and rebuild; do not start the dev server"`
	NoLiveReload bool `name:"no-live-reload" help:"Disable live reload script injection"`
	Poll         bool `help:"Poll for changes instead of using filesystem notifications"`
}

// Run blocks until SIGINT/SIGTERM. Task failures are logged and never end
// the command; only a startup failure such as a taken port does.
func (w *WatchCmd) Run(g *Global, cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return w.run(ctx, g, cli)
}

func (w *WatchCmd) run(ctx context.Context, g *Global, cli *CLI) error {
	a, err := newApp(cli, g.Logger)
	if err != nil {
		return err
	}
	cfg := a.cfg
	if w.Port != 0 {
		cfg.Server.Port = w.Port
	}
	if w.NoLiveReload {
		f := false
		cfg.Server.LiveReload = &f
	}

	var reloaders notify.Multi
	var server *devserver.Server
	if !w.NoServer {
		opts := devserver.Options{
			Host:       cfg.Server.Host,
			Port:       cfg.Server.Port,
			BaseDir:    a.cfg.Layout(a.root).Abs(cfg.Server.BaseDir),
			LiveReload: config.Enabled(cfg.Server.LiveReload),
			Recorder:   a.recorder,
			Logger:     g.Logger,
		}
		if config.Enabled(cfg.Server.Metrics) {
			opts.Metrics = metrics.HTTPHandler(a.promReg)
		}
		server = devserver.New(opts)
		if opts.LiveReload {
			reloaders = append(reloaders, server.Hub())
		}
	}
	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := pub.Close(); cerr != nil {
				g.Logger.Warn("NATS close failed", logfields.Error(cerr))
			}
		}()
		reloaders = append(reloaders, pub)
	}

	bindings, err := watch.BindingsFromConfig(cfg.Watch.Bindings, a.cfg.Layout(a.root), a.registry)
	if err != nil {
		return err
	}
	sup := watch.NewSupervisor(bindings, a.runner,
		watch.WithReloader(reloaders),
		watch.WithRecorder(a.recorder),
		watch.WithLogger(g.Logger),
		watch.WithDebounce(cfg.Watch.Debounce),
		watch.WithPolling(cfg.Watch.PollInterval, cfg.Watch.ForcePolling || w.Poll),
	)

	// A member that fails to start takes the other one down with it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	member := func(name, desc string, fn flow.Func) flow.Node {
		return flow.NewTask(name, desc, func(ctx context.Context) error {
			err := fn(ctx)
			if err != nil {
				cancel()
			}
			return err
		})
	}
	steps := []flow.Node{member("watch-files", "Rebuild bound tasks on change", sup.Run)}
	if server != nil {
		steps = append(steps, member("dev-server", "Serve the site with live reload", server.Serve))
	}

	g.Logger.Info("Watching for changes; press Ctrl+C to stop", slog.Int("bindings", len(bindings)))
	return flow.NewEngine(flow.WithObserver(flow.NewLogObserver(g.Logger))).
		Run(ctx, flow.NewParallel("watch", steps...))
}
