package dispatch

import (
	"sort"
	"sync"
)

// Registry maps handler names to implementations. Re-registering a name
// replaces the previous handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]EventHandler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]EventHandler)}
}

func (r *Registry) Register(name string, h EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

func (r *Registry) Get(name string) (EventHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered handler names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
