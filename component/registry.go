package component

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/c360/cleansweep/errors"
)

// Registry maps stage names to factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name. Duplicate names are rejected.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: stage name is required", errors.ErrInvalidConfig),
			"Registry", "Register", "validate name")
	}
	if factory == nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: factory is required", errors.ErrInvalidConfig),
			"Registry", "Register", "validate factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("stage %q is already registered", name),
			"Registry", "Register", "duplicate stage check")
	}
	r.factories[name] = factory
	return nil
}

// Create builds a stage by factory name. rawConfig may be nil when the stage
// takes no configuration.
func (r *Registry) Create(name string, rawConfig json.RawMessage, deps Dependencies) (Stage, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.WrapInvalid(
			fmt.Errorf("unknown stage %q", name),
			"Registry", "Create", "factory lookup")
	}

	stage, err := factory(rawConfig, deps)
	if err != nil {
		return nil, errors.Wrap(err, "Registry", "Create", "factory execution")
	}
	return stage, nil
}

// Names returns the registered stage names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
