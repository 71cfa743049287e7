package core

import "fmt"

// Registry is a small named lookup table of constructors, used for the
// Code-language table (codeRegistry in yaml_config.go): each language
// variant is registered once at package init and looked up by source
// extension instead of being chosen with a type switch spread across
// callers. Judge and reactive conventions are plain constants, not
// registry entries. Grounded on rime/util/class_registry.py's ClassRegistry.
type Registry[T any] struct {
	entries map[string]T
}

// NewRegistry creates an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

// Add registers name, failing if it is already taken. Use Override to
// replace an existing entry deliberately.
func (r *Registry[T]) Add(name string, value T) error {
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("registry: %q is already registered", name)
	}
	r.entries[name] = value
	return nil
}

// Override registers name unconditionally, replacing any existing entry.
func (r *Registry[T]) Override(name string, value T) {
	r.entries[name] = value
}

// Get looks up name, reporting whether it was found.
func (r *Registry[T]) Get(name string) (T, bool) {
	v, ok := r.entries[name]
	return v, ok
}

// Names returns every registered name, in no particular order.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	return names
}
