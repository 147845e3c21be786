// Package ipc is the invoke bridge between the GUI front end and the
// backend's command handlers. Each request names a command and carries its
// arguments as a JSON object; the reply is the handler's JSON result or a
// textual error.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrBadArgs marks an argument object that does not match the command.
var ErrBadArgs = errors.New("invalid arguments")

// Handler serves one command. args is the raw JSON argument object.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Typed adapts a function taking a decoded argument struct into a Handler.
// A missing or empty argument object decodes to the zero value.
func Typed[A, R any](fn func(context.Context, A) (R, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadArgs, err)
			}
		}
		return fn(ctx, args)
	}
}

// Registry maps command names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler. Names must be unique.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" {
		return errors.New("command name is empty")
	}
	if h == nil {
		return fmt.Errorf("command %s: nil handler", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}
	r.handlers[name] = h
	return nil
}

// Lookup returns the handler for name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered command names in sorted order.
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
