package commands

import (
	"context"
	"os/signal"
	"sort"
	"syscall"

	"github.com/olekukonko/tablewriter"

	"git.home.luguber.info/inful/assetpipe/internal/flow"
	"git.home.luguber.info/inful/assetpipe/internal/tasks"
)

// runTasks runs names in series, stopping early on SIGINT/SIGTERM.
func runTasks(g *Global, cli *CLI, parallel bool, names ...string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	a, err := newApp(cli, g.Logger)
	if err != nil {
		return err
	}
	return a.runner.RunNames(ctx, parallel, names...)
}

// BuildCmd implements the 'build' command (also the default).
type BuildCmd struct{}

func (*BuildCmd) Run(g *Global, cli *CLI) error { return runTasks(g, cli, false, tasks.Build) }

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (*CleanCmd) Run(g *Global, cli *CLI) error { return runTasks(g, cli, false, tasks.Clean) }

// CSSCmd implements the 'css' command.
type CSSCmd struct{}

func (*CSSCmd) Run(g *Global, cli *CLI) error { return runTasks(g, cli, false, tasks.CSS) }

// ImagesCmd implements the 'images' command.
type ImagesCmd struct{}

func (*ImagesCmd) Run(g *Global, cli *CLI) error { return runTasks(g, cli, false, tasks.Images) }

// JSCmd implements the 'js' command.
type JSCmd struct{}

func (*JSCmd) Run(g *Global, cli *CLI) error { return runTasks(g, cli, false, tasks.JS) }

// RunCmd runs any registered task or alias.
type RunCmd struct {
	Tasks    []string `arg:"" name:"task" help:"Task names, run in the given order"`
	Parallel bool     `short:"p" help:"Run the named tasks in parallel instead of in series"`
}

func (r *RunCmd) Run(g *Global, cli *CLI) error {
	return runTasks(g, cli, r.Parallel, r.Tasks...)
}

// ListCmd prints the registered tasks.
type ListCmd struct{}

func (*ListCmd) Run(g *Global, cli *CLI) error {
	a, err := newApp(cli, g.Logger)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(g.Out)
	table.SetHeader([]string{"Task", "Description"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, name := range a.registry.Names() {
		desc := ""
		if d, ok := a.registry.MustGet(name).(flow.Describer); ok {
			desc = d.Description()
		}
		table.Append([]string{name, desc})
	}
	aliases := a.registry.Aliases()
	names := make([]string, 0, len(aliases))
	for alias := range aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	for _, alias := range names {
		table.Append([]string{alias, "alias of " + aliases[alias]})
	}
	table.Render()
	return nil
}
