package coordinator

import (
	"github.com/flowdag/flowdag/internal/domain"
	"github.com/flowdag/flowdag/internal/template"
)

var resolver = template.New()

// resolveParams resolves node.Params against snap before a task is
// queued for a worker, so the worker (which has no access to this
// coordinator's memory store) receives already-concrete parameters.
func resolveParams(node domain.NodeDescriptor, snap domain.Snapshot) (map[string]any, error) {
	return resolver.ResolveParams(node.ID, node.Params, snap)
}
