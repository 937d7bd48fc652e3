package broker

import (
	"slices"
	"strings"
	"sync"

	"github.com/tphakala/tom-alerce/internal/errors"
)

// Registry maps broker names to implementations. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	brokers map[string]Broker
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{brokers: make(map[string]Broker)}
}

// Register adds a broker. Names are unique.
func (r *Registry) Register(b Broker) error {
	if b == nil || b.Name() == "" {
		return errors.Newf("broker must have a name").
			Component("broker").
			Category(errors.CategoryValidation).
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.brokers[b.Name()]; exists {
		return errors.Newf("broker %q already registered", b.Name()).
			Component("broker").
			Category(errors.CategoryConflict).
			Context("broker", b.Name()).
			Build()
	}
	r.brokers[b.Name()] = b
	return nil
}

// Get returns the broker registered under name. An exact match wins over a
// case-insensitive one, so URL paths may use "alerce" for "ALeRCE".
func (r *Registry) Get(name string) (Broker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.brokers[name]
	if !ok {
		for registered, candidate := range r.brokers {
			if strings.EqualFold(registered, name) {
				return candidate, nil
			}
		}

		return nil, errors.Newf("broker %q not found", name).
			Component("broker").
			Category(errors.CategoryNotFound).
			Context("broker", name).
			Build()
	}
	return b, nil
}

// Names returns the registered broker names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.brokers))
	for name := range r.brokers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
