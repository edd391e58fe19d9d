package executor

import (
	"context"
	"fmt"

	"github.com/flowdag/flowdag/internal/domain"
)

// Dispatch resolves a node's params against rt's current store, runs the
// node's handler, and records the result in the store. It is the single
// place dispatch logic lives so the loop handler's scoped sub-scheduler
// and the top-level run orchestrator share identical semantics.
func Dispatch(ctx context.Context, reg *Registry, rt *Runtime, node domain.NodeDescriptor) (any, error) {
	handler, ok := reg.Get(node.Kind)
	if !ok {
		return nil, domain.NewNodeError(domain.ErrLoad, node.ID, fmt.Sprintf("no handler registered for kind %q", node.Kind), nil)
	}

	snap := rt.Store.Snapshot()
	params, err := rt.Resolver.ResolveParams(node.ID, node.Params, snap)
	if err != nil {
		return nil, err
	}

	out, err := handler.Handle(ctx, node, params, rt)
	if err != nil {
		return out, err
	}

	rt.Store.PutOutput(node.ID, out)
	return out, nil
}
