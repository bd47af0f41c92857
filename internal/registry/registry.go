package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/exprun/internal/config"
	"github.com/vk/exprun/internal/ctxlog"
)

// EntryPoint is a registered experiment entry point. It receives the
// experiment name and the resolved user payload, and runs inside the
// prepared experiment directory.
type EntryPoint func(ctx context.Context, name string, cfg config.Payload) error

// Module is anything that can contribute entry points to a registry.
// Built-in modules implement it and are registered at startup.
type Module interface {
	Register(r *Registry)
}

// InvocationError reports a reference that cannot be resolved to a
// registered entry point, or an entry point that failed.
type InvocationError struct {
	Ref string
	Err error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("registry: entry point %q: %v", e.Ref, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Registry holds the mapping from entry-point reference strings to Go
// functions.
type Registry struct {
	entries map[string]EntryPoint
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]EntryPoint)}
}

// Register adds an entry point under its reference string. Registering the
// same reference twice is a programmer error and panics.
func (r *Registry) Register(ref string, fn EntryPoint) {
	if _, exists := r.entries[ref]; exists {
		panic(fmt.Sprintf("entry point %q already registered", ref))
	}
	r.entries[ref] = fn
}

// Resolve validates a reference string and returns the registered entry
// point behind it.
func (r *Registry) Resolve(ref string) (EntryPoint, error) {
	module, fn, ok := strings.Cut(ref, ":")
	if !ok || module == "" || fn == "" {
		return nil, &InvocationError{Ref: ref, Err: fmt.Errorf("reference must have the form module:function")}
	}
	entry, ok := r.entries[ref]
	if !ok {
		return nil, &InvocationError{Ref: ref, Err: fmt.Errorf("not registered")}
	}
	return entry, nil
}

// Call resolves ref and invokes it with the experiment name and resolved
// payload.
func (r *Registry) Call(ctx context.Context, ref, name string, cfg config.Payload) error {
	entry, err := r.Resolve(ref)
	if err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Invoking entry point.", "ref", ref, "name", name)

	if err := entry(ctx, name, cfg); err != nil {
		return &InvocationError{Ref: ref, Err: err}
	}
	return nil
}
