package watch

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/assetpipe/internal/asset"
	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

type fileStamp struct {
	modTime time.Time
	size    int64
}

// poller compares mtime snapshots of polled bindings on a gocron duration job.
type poller struct {
	scheduler gocron.Scheduler
	interval  time.Duration
	logger    *slog.Logger
}

func newPoller(interval time.Duration, logger *slog.Logger) (*poller, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryWatch, "create poll scheduler").Build()
	}
	return &poller{scheduler: s, interval: interval, logger: logger}, nil
}

// add schedules polling of b, calling trigger whenever its snapshot changes.
// The baseline is taken now, so existing files do not trigger.
func (p *poller) add(b Binding, trigger func()) error {
	var mu sync.Mutex
	last := snapshot(b)
	check := func() {
		cur := snapshot(b)
		mu.Lock()
		changed := !maps.Equal(last, cur)
		last = cur
		mu.Unlock()
		if changed {
			p.logger.Debug("Polled change", logfields.Binding(b.Name), logfields.Path(b.Root))
			trigger()
		}
	}
	_, err := p.scheduler.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(check),
		gocron.WithName(fmt.Sprintf("poll-%s", b.Name)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryWatch, "schedule poll job").
			WithContext("binding", b.Name).Build()
	}
	p.logger.Info("Polling watch root", logfields.Binding(b.Name), logfields.Path(b.Root), logfields.Duration(p.interval))
	return nil
}

func (p *poller) start() { p.scheduler.Start() }

func (p *poller) stop() error { return p.scheduler.Shutdown() }

// snapshot stamps every file matching b. A missing root is an empty snapshot.
func snapshot(b Binding) map[string]fileStamp {
	out := make(map[string]fileStamp)
	rels, err := asset.Match(b.Root, b.Patterns...)
	if err != nil {
		return out
	}
	for _, rel := range rels {
		if shouldIgnore(rel) {
			continue
		}
		info, err := os.Stat(filepath.Join(b.Root, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		out[rel] = fileStamp{modTime: info.ModTime(), size: info.Size()}
	}
	return out
}
