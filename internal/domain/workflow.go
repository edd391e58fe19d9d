package domain

import "fmt"

// WorkflowDescriptor is the fully-loaded, validated description of a
// workflow: its declared globals and its node list. Grounded on the
// shape of the teacher's domain.Workflow aggregate, trimmed to the
// fields this engine actually needs (no persistence identity, no event
// log — a run is ephemeral).
type WorkflowDescriptor struct {
	Name    string
	Version string
	Global  map[string]any
	Nodes   []NodeDescriptor
}

// Validate checks the structural invariants §3 and §4.9 require before a
// run is ever attempted: unique ids, recognized kinds, and that every
// `needs` entry names a declared node. It does not detect cycles — that
// is the scheduler's job (Kahn's algorithm naturally reports them) so the
// same check is not duplicated here.
func (w *WorkflowDescriptor) Validate() error {
	seen := make(map[string]struct{}, len(w.Nodes))
	for _, n := range w.Nodes {
		if n.ID == "" {
			return NewError(ErrLoad, "node is missing an id", nil)
		}
		if _, dup := seen[n.ID]; dup {
			return NewError(ErrLoad, fmt.Sprintf("duplicate node id %q", n.ID), nil)
		}
		seen[n.ID] = struct{}{}

		if !n.Kind.IsValid() {
			return NewNodeError(ErrLoad, n.ID, fmt.Sprintf("unknown node kind %q", n.Kind), nil)
		}
	}

	for _, n := range w.Nodes {
		for _, dep := range n.Needs {
			if _, ok := seen[dep]; !ok {
				return NewNodeError(ErrLoad, n.ID, fmt.Sprintf("needs undeclared node %q", dep), nil)
			}
		}
	}

	return nil
}

// ValidateScoped checks the same invariants as Validate but restricted to
// a node subset that must only depend on itself — used by the loop
// sub-executor (§4.5, §9 resolved question 1) so that a loop step's
// `needs` can never reach outside the loop's own steps.
func ValidateScoped(nodes []NodeDescriptor) error {
	w := WorkflowDescriptor{Nodes: nodes}
	return w.Validate()
}
