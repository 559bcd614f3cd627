package handler

import (
	"errors"
	"fmt"
	"strings"
)

// Registry is an ordered, immutable set of handlers plus a generic fallback.
// Order encodes priority: on equal confidence the earlier handler wins.
type Registry struct {
	handlers []Handler
	fallback Handler
	byName   map[string]Handler
	sig      string
}

// NewRegistry builds a registry. Handlers are kept in the order given. Names
// must be unique across handlers and the fallback.
func NewRegistry(fallback Handler, handlers ...Handler) (*Registry, error) {
	if fallback == nil {
		return nil, errors.New("registry requires a fallback handler")
	}
	r := &Registry{
		handlers: make([]Handler, 0, len(handlers)),
		fallback: fallback,
		byName:   make(map[string]Handler, len(handlers)+1),
	}
	r.byName[fallback.Name()] = fallback
	for i, h := range handlers {
		if h == nil {
			return nil, fmt.Errorf("handler at position %d is nil", i)
		}
		if _, dup := r.byName[h.Name()]; dup {
			return nil, fmt.Errorf("handler %q already registered", h.Name())
		}
		r.byName[h.Name()] = h
		r.handlers = append(r.handlers, h)
	}
	r.sig = signature(append(r.Handlers(), fallback))
	return r, nil
}

func signature(handlers []Handler) string {
	parts := make([]string, len(handlers))
	for i, h := range handlers {
		parts[i] = h.Name()
		if c, ok := h.(Configurable); ok {
			parts[i] += "{" + c.Signature() + "}"
		}
	}
	return strings.Join(parts, ",")
}

// Signature identifies the registry's handlers, their order and their
// settings. Registries that can detect differently have different signatures.
func (r *Registry) Signature() string {
	return r.sig
}

// Handlers returns the probed handlers in priority order. The slice is a copy.
func (r *Registry) Handlers() []Handler {
	out := make([]Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

// Fallback returns the generic handler.
func (r *Registry) Fallback() Handler {
	return r.fallback
}

// Get looks up a handler (including the fallback) by name.
func (r *Registry) Get(name string) (Handler, bool) {
	h, ok := r.byName[name]
	return h, ok
}

// Names lists probed handler names in priority order, followed by the fallback.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers)+1)
	for _, h := range r.handlers {
		names = append(names, h.Name())
	}
	return append(names, r.fallback.Name())
}

// Len returns the number of probed handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}
