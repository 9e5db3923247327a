// Package registry maps controller names to factories so routes can be declared in configuration.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/leynos/pkg/controller"
)

// ErrUnknownController is returned when no factory is registered under a name.
var ErrUnknownController = errors.New("controller not found")

// Registry manages the available controllers.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]controller.Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		controllers: make(map[string]controller.Factory),
	}
}

// Default returns a registry holding the built-in controllers.
func Default() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

// Register adds a controller factory to the registry.
// If a controller with the same name exists, it is overwritten.
func (r *Registry) Register(name string, f controller.Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.controllers[name] = f
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (controller.Factory, error) {
	r.mu.RLock()
	f, ok := r.controllers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownController, name)
	}
	return f, nil
}

// Names lists the registered controllers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.controllers))
	for name := range r.controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
