package plugin

import (
	"fmt"
	"sync"

	"git.home.luguber.info/inful/sitetree/internal/util/sets"
)

// MissingDependencyError reports a declared dependency that is not
// registered.
type MissingDependencyError struct {
	Plugin     string
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("plugin %q depends on %q which is not registered", e.Plugin, e.Dependency)
}

// CyclicDependencyError reports a dependency cycle. Cyclic configurations
// are rejected outright rather than left as undefined behavior.
type CyclicDependencyError struct {
	Plugin string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("plugin dependency cycle detected at %q", e.Plugin)
}

type registration struct {
	plugin Plugin
	deps   []string
}

// Registry holds registered plugins together with the names of the plugins
// they depend on, and produces a dependency-respecting execution order.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register stores a plugin keyed by its name. Re-registering a name
// replaces the previous entry and its dependency list but keeps the
// original registration position.
func (r *Registry) Register(p Plugin, deps ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = registration{plugin: p, deps: deps}
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Ordered returns the registered plugins in dependency order: every plugin
// appears after all of its dependencies, via depth-first post-order
// traversal. Declared-but-unregistered dependencies yield a
// *MissingDependencyError, cycles a *CyclicDependencyError.
func (r *Registry) Ordered() ([]Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	visited := sets.New[string]()
	inProgress := sets.New[string]()
	ordered := make([]Plugin, 0, len(r.entries))

	var visit func(name string) error
	visit = func(name string) error {
		if visited.Has(name) {
			return nil
		}
		if inProgress.Has(name) {
			return &CyclicDependencyError{Plugin: name}
		}
		inProgress.Add(name)

		entry := r.entries[name]
		for _, dep := range entry.deps {
			if _, ok := r.entries[dep]; !ok {
				return &MissingDependencyError{Plugin: name, Dependency: dep}
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		inProgress.Delete(name)
		visited.Add(name)
		ordered = append(ordered, entry.plugin)
		return nil
	}

	for _, name := range r.order {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
