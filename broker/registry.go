package broker

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	httpfactory "github.com/rajindersingh041/http-factory"
)

// Builder constructs a Service, applying any extra client options on top
// of the catalog's configuration.
type Builder func(extra ...httpfactory.Option) (Service, error)

// Registry maps service names to builders. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty service registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = builder
}

// Create builds the named service. Unknown names return an error listing
// what is available.
func (r *Registry) Create(name string, extra ...httpfactory.Option) (Service, error) {
	r.mu.RLock()
	builder, ok := r.builders[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("broker: unknown service %q (available: %s)",
			name, strings.Join(r.Available(), ", "))
	}
	return builder(extra...)
}

// Available returns the registered service names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsAvailable reports whether name is registered.
func (r *Registry) IsAvailable(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builders[name]
	return ok
}

// DefaultRegistry holds the built-in service catalogs.
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("upstox", func(extra ...httpfactory.Option) (Service, error) {
		return NewService(UpstoxConfig(), extra...)
	})
	r.Register("groww", func(extra ...httpfactory.Option) (Service, error) {
		return NewService(GrowwConfig(), extra...)
	})
	r.Register("xts", func(extra ...httpfactory.Option) (Service, error) {
		return NewService(XTSConfig(), extra...)
	})
	return r
}
