// Package executor hosts the twelve node kind handlers (spec §4.3), the
// registry that dispatches a NodeDescriptor to its handler, and the loop
// sub-executor (§4.5) that recursively drives a scoped scheduler over a
// loop's steps.
//
// Grounded throughout on internal/application/executor/node_executors.go
// (concrete per-kind executor shapes) and internal/node/registry.go (the
// kind-keyed registry pattern) in the teacher.
package executor

import (
	"context"

	"github.com/flowdag/flowdag/internal/domain"
)

// Handler executes one node kind. Resolve has already substituted every
// `{{ }}` template in params against the snapshot taken at dispatch time;
// a Handler only ever sees resolved, concrete values.
type Handler interface {
	Handle(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error)

func (f HandlerFunc) Handle(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	return f(ctx, node, params, rt)
}

// Registry maps node kinds to their handler.
type Registry struct {
	handlers map[domain.NodeKind]Handler
}

// NewRegistry builds a Registry with all twelve built-in handlers wired
// in. deps supplies the shared collaborators (HTTP client, LLM client,
// input prompt function) each handler needs.
func NewRegistry(deps Dependencies) *Registry {
	r := &Registry{handlers: make(map[domain.NodeKind]Handler, 12)}
	r.handlers[domain.NodeShell] = newShellHandler()
	r.handlers[domain.NodeHTTP] = newHTTPHandler(deps.HTTPClient)
	r.handlers[domain.NodeDelay] = newDelayHandler()
	r.handlers[domain.NodeSwitch] = newSwitchHandler()
	r.handlers[domain.NodeScript] = newScriptHandler()
	r.handlers[domain.NodeLLM] = newLLMHandler(deps.LLMClient)
	r.handlers[domain.NodeTransform] = newTransformHandler()
	r.handlers[domain.NodeFile] = newFileHandler()
	r.handlers[domain.NodeLoop] = newLoopHandler(r)
	r.handlers[domain.NodeInput] = newInputHandler(deps.Input)
	r.handlers[domain.NodeAssign] = newAssignHandler()
	r.handlers[domain.NodeMCP] = newMCPHandler()
	return r
}

// Get returns the handler registered for kind, if any.
func (r *Registry) Get(kind domain.NodeKind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Set overrides (or adds) the handler for kind — used by tests to stub
// out handlers that would otherwise touch the network or filesystem.
func (r *Registry) Set(kind domain.NodeKind, h Handler) {
	r.handlers[kind] = h
}
