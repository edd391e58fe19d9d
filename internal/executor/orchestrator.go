package executor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/flowdag/flowdag/internal/domain"
	"github.com/flowdag/flowdag/internal/scheduler"
	"github.com/flowdag/flowdag/internal/template"
)

// RunOptions configures a single workflow run (C8).
type RunOptions struct {
	MaxConcurrency int
	Overrides      map[string]any
	Log            zerolog.Logger
}

// RunResult is what a completed (or partially completed) run reports
// back to the caller: every node's recorded output plus, in Err, one of
// the recorded failures (an arbitrary one when several nodes failed), if
// any.
type RunResult struct {
	Outputs map[string]any
	Failed  map[string]error
	Skipped []string
	Err     error
}

// Run builds the DAG for wf, seeds a root domain.Store with its declared
// globals plus opts.Overrides, and drives the scheduler to completion
// using reg's handlers. Grounded on internal/application/executor/engine.go's
// three-phase ExecuteWorkflow, collapsed here since plan/execute/finalize
// in this engine are just "build graph, run it, snapshot outputs" — there
// is no separate event-sourcing finalize step.
func Run(ctx context.Context, wf *domain.WorkflowDescriptor, reg *Registry, runID string, opts RunOptions) *RunResult {
	if err := wf.Validate(); err != nil {
		return &RunResult{Err: err}
	}

	global := make(map[string]any, len(wf.Global)+len(opts.Overrides))
	for k, v := range wf.Global {
		global[k] = v
	}
	for k, v := range opts.Overrides {
		global[k] = v
	}
	store := domain.NewStore(global)

	rt := &Runtime{
		Store:          store,
		Resolver:       template.New(),
		Log:            opts.Log,
		RunID:          runID,
		Registry:       reg,
		MaxConcurrency: opts.MaxConcurrency,
	}

	ids := make([]string, 0, len(wf.Nodes))
	needs := make(map[string][]string, len(wf.Nodes))
	byID := make(map[string]domain.NodeDescriptor, len(wf.Nodes))
	for _, n := range wf.Nodes {
		ids = append(ids, n.ID)
		needs[n.ID] = n.Needs
		byID[n.ID] = n
	}

	graph, err := scheduler.NewGraph(ids, needs)
	if err != nil {
		return &RunResult{Err: domain.NewError(domain.ErrLoad, fmt.Sprintf("invalid workflow graph: %v", err), err)}
	}

	dispatch := func(dctx context.Context, nodeID string) error {
		node := byID[nodeID]
		rt.Log.Debug().Str("node_id", nodeID).Str("kind", string(node.Kind)).Msg("dispatching node")
		_, err := Dispatch(dctx, reg, rt, node)
		return err
	}

	res := scheduler.Run(ctx, graph, dispatch, scheduler.Options{MaxConcurrency: opts.MaxConcurrency})

	snap := store.Snapshot()
	result := &RunResult{
		Outputs: snap.Outputs,
		Failed:  res.Failed,
		Skipped: res.Skipped,
	}
	for _, err := range res.Failed {
		result.Err = err
		break
	}
	return result
}
