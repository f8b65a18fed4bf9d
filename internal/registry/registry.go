// Package registry holds the resource types a client instance can operate on.
package registry

import (
	"fmt"
	"sort"

	"github.com/fivetwenty-io/vnc-client/pkg/vnc"
)

// Registry is an immutable name-indexed set of type descriptions.
type Registry struct {
	types map[string]vnc.TypeDescription
}

// New builds a registry. A later description with the same name replaces an
// earlier one.
func New(types []vnc.TypeDescription) *Registry {
	r := &Registry{types: make(map[string]vnc.TypeDescription, len(types))}
	for _, t := range types {
		r.types[t.Name] = t
	}

	return r
}

// Default returns a registry over vnc.BuiltinTypes.
func Default() *Registry {
	return New(vnc.BuiltinTypes())
}

// Lookup returns the description of objType.
func (r *Registry) Lookup(objType string) (vnc.TypeDescription, error) {
	t, ok := r.types[objType]
	if !ok {
		return vnc.TypeDescription{}, fmt.Errorf("%w: %s", vnc.ErrResourceTypeUnknown, objType)
	}

	return t, nil
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
