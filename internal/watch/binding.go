package watch

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/assetpipe/internal/config"
	"git.home.luguber.info/inful/assetpipe/internal/flow"
	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Binding triggers Target when a file under Root matching Patterns changes.
// Bindings are built once at startup and never mutated.
type Binding struct {
	Name     string
	Root     string
	Patterns []string
	Target   flow.Node
}

// Matches reports whether path lies under the binding root and matches one
// of its patterns.
func (b Binding) Matches(path string) bool {
	rel, err := filepath.Rel(b.Root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range b.Patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// BindingsFromConfig resolves configured bindings against layout and the
// registry. An unknown task is an error.
func BindingsFromConfig(cfgs []config.BindingConfig, layout config.Layout, reg *flow.Registry) ([]Binding, error) {
	out := make([]Binding, 0, len(cfgs))
	for _, c := range cfgs {
		target, err := reg.Get(c.Task)
		if err != nil {
			if ce, ok := ferrors.AsClassified(err); ok {
				return nil, ce.WithContext("binding", c.Name)
			}
			return nil, err
		}
		root, err := filepath.Abs(layout.Abs(c.Root))
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "resolve watch root").
				WithContext("binding", c.Name).Build()
		}
		out = append(out, Binding{
			Name:     c.Name,
			Root:     root,
			Patterns: append([]string(nil), c.Patterns...),
			Target:   target,
		})
	}
	return out, nil
}
