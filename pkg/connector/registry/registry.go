// Package registry provides a global connector registry. Platform packages
// register factory functions from their init() so that importing a
// connector package is all it takes to make it available by name.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/connector/core"
	"github.com/SolaceLabs/solace-ai-connector-slack/pkg/errors"
)

// InputFactory creates a new input connector instance.
type InputFactory func() core.Input

// OutputFactory creates a new output connector instance.
type OutputFactory func() core.Output

// Registry holds registered connector factories.
type Registry struct {
	mu      sync.RWMutex
	inputs  map[string]InputFactory
	outputs map[string]OutputFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		inputs:  make(map[string]InputFactory),
		outputs: make(map[string]OutputFactory),
	}
}

// global registry used by the package-level functions
var global = NewRegistry()

// RegisterInput registers an input connector factory. Panics on duplicate
// registration; connector names must be unique across the process.
func (r *Registry) RegisterInput(name string, factory InputFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.inputs[name]; exists {
		panic(fmt.Sprintf("input connector %q already registered", name))
	}
	r.inputs[name] = factory
}

// RegisterOutput registers an output connector factory.
func (r *Registry) RegisterOutput(name string, factory OutputFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.outputs[name]; exists {
		panic(fmt.Sprintf("output connector %q already registered", name))
	}
	r.outputs[name] = factory
}

// CreateInput instantiates a registered input connector by name.
func (r *Registry) CreateInput(name string) (core.Input, error) {
	r.mu.RLock()
	factory, exists := r.inputs[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeNotFound,
			"input connector %q not registered (available: %v)", name, r.ListInputs())
	}
	return factory(), nil
}

// CreateOutput instantiates a registered output connector by name.
func (r *Registry) CreateOutput(name string) (core.Output, error) {
	r.mu.RLock()
	factory, exists := r.outputs[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeNotFound,
			"output connector %q not registered (available: %v)", name, r.ListOutputs())
	}
	return factory(), nil
}

// ListInputs returns the sorted names of registered input connectors.
func (r *Registry) ListInputs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.inputs))
	for name := range r.inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListOutputs returns the sorted names of registered output connectors.
func (r *Registry) ListOutputs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.outputs))
	for name := range r.outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterInput registers an input connector factory in the global registry.
func RegisterInput(name string, factory InputFactory) {
	global.RegisterInput(name, factory)
}

// RegisterOutput registers an output connector factory in the global registry.
func RegisterOutput(name string, factory OutputFactory) {
	global.RegisterOutput(name, factory)
}

// CreateInput instantiates an input connector from the global registry.
func CreateInput(name string) (core.Input, error) {
	return global.CreateInput(name)
}

// CreateOutput instantiates an output connector from the global registry.
func CreateOutput(name string) (core.Output, error) {
	return global.CreateOutput(name)
}

// ListInputs lists input connectors in the global registry.
func ListInputs() []string {
	return global.ListInputs()
}

// ListOutputs lists output connectors in the global registry.
func ListOutputs() []string {
	return global.ListOutputs()
}
