package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps locator strings to provider factories. Configs name a
// locator instead of a concrete type, so wiring a new vendor into a
// deployment is a config edit plus one Register call.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a factory to a locator. Later registrations replace
// earlier ones.
func (r *Registry) Register(locator string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[locator] = f
}

// Resolve looks up the factory for a locator.
func (r *Registry) Resolve(locator string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[locator]
	if !ok {
		return nil, fmt.Errorf("no provider factory registered for locator '%s'", locator)
	}
	return f, nil
}

// Locators lists the registered locators, sorted.
func (r *Registry) Locators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry that built-in
// provider packages register into.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}
