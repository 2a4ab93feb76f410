// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package tools maps model-facing function names to local handlers. The
// registry is built once at startup and handed to the orchestrator; there is
// no ambient global lookup.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownFunction marks a tool name the registry does not know.
var ErrUnknownFunction = errors.New("unknown function")

// Handler executes one named function with the model-supplied arguments and
// returns a JSON-serializable result.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Registry is a thread-safe mapping of function names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a named handler. Panics if the name is already registered
// (catches duplicate wiring at startup).
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("tools: function %q already registered", name))
	}
	r.handlers[name] = h
}

// Call invokes the named handler. Unregistered names fail with
// ErrUnknownFunction; handler failures propagate untouched.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("function %s: %w", name, ErrUnknownFunction)
	}
	return h(ctx, args)
}
