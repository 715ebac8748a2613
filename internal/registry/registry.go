// Package registry holds the static capability catalog. The catalog is
// built once at startup and never mutated: any invalid or duplicate entry
// aborts construction so a misconfigured process refuses to start.
package registry

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidRegistry = errors.New("invalid capability registry")

// Registry maps capability names to their descriptors.
type Registry struct {
	items map[string]Capability
}

// New builds a registry from a capability list, failing on the first
// invalid or duplicate entry.
func New(caps []Capability) (*Registry, error) {
	items := make(map[string]Capability, len(caps))
	for _, c := range caps {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, ok := items[c.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate capability %q", ErrInvalidRegistry, c.Name)
		}
		items[c.Name] = c
	}
	return &Registry{items: items}, nil
}

// Get returns a capability by name.
func (r *Registry) Get(name string) (Capability, bool) {
	c, ok := r.items[name]
	return c, ok
}

// Names returns the registered capability names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered capabilities sorted by name.
func (r *Registry) List() []Capability {
	list := make([]Capability, 0, len(r.items))
	for _, c := range r.items {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int { return len(r.items) }
