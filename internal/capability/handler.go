// Package capability holds the builtin capability handlers and the runtime
// registry of handlers a process can execute. The catalog in the registry
// package says what MAY be invoked and where; this registry holds what THIS
// process actually runs.
package capability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/danmuck/loomctl/internal/protocol"
	"github.com/danmuck/loomctl/internal/registry"
)

var (
	ErrHandlerExists   = errors.New("handler already registered")
	ErrHandlerNil      = errors.New("handler is nil")
	ErrTransient       = errors.New("transient capability failure")
	ErrMissingMetadata = errors.New("payload metadata required")
)

// Handler executes one capability in-process.
type Handler interface {
	Name() string
	Describe() registry.Capability
	Invoke(ctx context.Context, req protocol.InvokeRequest) (protocol.Payload, error)
}

// Registry maps capability names to handlers.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Handler)}
}

// Register adds a handler under its own name.
func (r *Registry) Register(h Handler) error {
	if h == nil {
		return ErrHandlerNil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name := h.Name()
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %s", ErrHandlerExists, name)
	}
	r.items[name] = h
	return nil
}

// Get returns a handler by name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.items[name]
	return h, ok
}

// Names returns the registered handler names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
