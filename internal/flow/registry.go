package flow

import (
	"maps"
	"sort"
	"sync"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Registry maps task names to nodes. It is built once at startup and passed
// by reference to the CLI and the watch supervisor.
type Registry struct {
	mu      sync.RWMutex
	nodes   map[string]Node
	aliases map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]Node), aliases: make(map[string]string)}
}

// Register adds nodes under their own names. Names must be unique and non-empty.
func (r *Registry) Register(nodes ...Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range nodes {
		if n == nil || n.Name() == "" {
			return ferrors.ValidationError("task name cannot be empty").Build()
		}
		name := n.Name()
		if _, dup := r.nodes[name]; dup {
			return ferrors.ValidationError("task already registered").WithContext("task", name).Build()
		}
		if _, dup := r.aliases[name]; dup {
			return ferrors.ValidationError("task name collides with alias").WithContext("task", name).Build()
		}
		r.nodes[name] = n
	}
	return nil
}

// Alias makes alias resolve to the registered task target.
func (r *Registry) Alias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[target]; !ok {
		return ferrors.NotFoundError("alias target not registered").
			WithContext("task", target).
			WithContext("alias", alias).
			Build()
	}
	if _, dup := r.nodes[alias]; dup {
		return ferrors.ValidationError("alias collides with task").WithContext("alias", alias).Build()
	}
	r.aliases[alias] = target
	return nil
}

// Get resolves a task or alias name.
func (r *Registry) Get(name string) (Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	n, ok := r.nodes[name]
	if !ok {
		return nil, ferrors.NotFoundError("task not registered").WithContext("task", name).Build()
	}
	return n, nil
}

// MustGet is Get for names wired at startup; it panics on unknown names.
func (r *Registry) MustGet(name string) Node {
	n, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return n
}

// Names returns registered task names in sorted order, aliases excluded.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.nodes))
	for n := range r.nodes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Aliases returns a copy of the alias table.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.aliases))
	maps.Copy(out, r.aliases)
	return out
}
