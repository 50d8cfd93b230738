// Package core binds manifest routes to named in-process handlers.
package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/joeydtaylor/steeze-bridge/pkg/framework"
)

// Registry maps handler names referenced in the manifest to route functions.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]framework.RouteFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]framework.RouteFunc{}}
}

// Register makes h available under name. Registering a name twice panics.
func (r *Registry) Register(name string, h framework.RouteFunc) {
	if name == "" || h == nil {
		panic("core: Register needs a name and a handler")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[name]; dup {
		panic(fmt.Sprintf("core: handler %q registered twice", name))
	}
	r.handlers[name] = h
}

// Lookup retrieves a registered handler by name.
func (r *Registry) Lookup(name string) (framework.RouteFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names lists the registered handler names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

var registry = NewRegistry()

// Register adds h to the process-wide registry.
func Register(name string, h framework.RouteFunc) { registry.Register(name, h) }

// Lookup reads from the process-wide registry.
func Lookup(name string) (framework.RouteFunc, bool) { return registry.Lookup(name) }

// Default returns the process-wide registry.
func Default() *Registry { return registry }
