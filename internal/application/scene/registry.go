package scene

import (
	"fmt"
	"sort"

	"github.com/younwookim/lightscenes/internal/infrastructure/config"
)

// Registry maps scene names to factories
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name, replacing any previous one
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Factory returns the factory registered under name
func (r *Registry) Factory(name string) (Factory, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (registered: %v)", config.ErrUnknownScene, name, r.Names())
	}
	return f, nil
}

// New constructs the scene registered under name
func (r *Registry) New(name string, env Env) (Scene, error) {
	f, err := r.Factory(name)
	if err != nil {
		return nil, err
	}
	return f(env), nil
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
