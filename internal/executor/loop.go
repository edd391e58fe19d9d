package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowdag/flowdag/internal/domain"
	"github.com/flowdag/flowdag/internal/scheduler"
)

// loopStepConfig is the JSON shape of one entry in a loop node's `steps`
// list, as it arrives straight off the YAML document (loader only parses
// top-level nodes into domain.NodeDescriptor; nested loop steps are
// parsed here instead).
type loopStepConfig struct {
	ID     string         `json:"id"`
	Kind   string         `json:"kind"`
	Name   string         `json:"name"`
	Needs  []string       `json:"needs"`
	Params map[string]any `json:"params"`
}

type loopConfig struct {
	Items           []any            `json:"items"`
	Steps           []loopStepConfig `json:"steps"`
	LoopParallelism int              `json:"loop_parallelism"`
}

type loopHandler struct {
	reg *Registry
}

func newLoopHandler(reg *Registry) Handler {
	return &loopHandler{reg: reg}
}

// Handle runs cfg.Steps once per element of cfg.Items, each iteration
// getting its own domain.Store scope (shared global, isolated outputs,
// its own LoopFrame) driven by a fresh scheduler.Run over a graph shared
// read-only across iterations (§4.5). Iterations run concurrently bounded
// by loop_parallelism (defaulting to the run's own max_concurrency); the
// iterations output array preserves item order regardless of completion
// order. Cross-scope `needs` is rejected at build time via
// domain.ValidateScoped, per §9 resolved question 1.
func (h *loopHandler) Handle(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[loopConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid loop config", err)
	}
	if cfg.Items == nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "loop node requires items", nil)
	}
	items := cfg.Items

	loopParallelism := cfg.LoopParallelism
	if loopParallelism == 0 {
		loopParallelism = rt.MaxConcurrency
	}

	steps := make([]domain.NodeDescriptor, 0, len(cfg.Steps))
	for _, s := range cfg.Steps {
		steps = append(steps, domain.NodeDescriptor{
			ID:     s.ID,
			Kind:   domain.NodeKind(s.Kind),
			Name:   s.Name,
			Needs:  s.Needs,
			Params: s.Params,
		})
	}
	if err := domain.ValidateScoped(steps); err != nil {
		return nil, domain.NewNodeError(domain.ErrLoad, node.ID, "invalid loop steps", err)
	}

	needs := make(map[string][]string, len(steps))
	ids := make([]string, 0, len(steps))
	for _, s := range steps {
		ids = append(ids, s.ID)
		needs[s.ID] = s.Needs
	}
	graph, err := scheduler.NewGraph(ids, needs)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrLoad, node.ID, "loop steps form an invalid graph", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sem chan struct{}
	if loopParallelism > 0 {
		sem = make(chan struct{}, loopParallelism)
	}

	results := make([]map[string]any, len(items))
	errs := make([]error, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(i int, item any) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			scopedStore := rt.Store.Scoped(domain.LoopFrame{Item: item, Index: i, Total: len(items)})
			scopedRT := &Runtime{
				Store:          scopedStore,
				Resolver:       rt.Resolver,
				Log:            rt.Log,
				RunID:          rt.RunID,
				Registry:       rt.Registry,
				MaxConcurrency: rt.MaxConcurrency,
			}

			dispatch := func(stepCtx context.Context, nodeID string) error {
				var step domain.NodeDescriptor
				for _, s := range steps {
					if s.ID == nodeID {
						step = s
						break
					}
				}
				_, err := Dispatch(stepCtx, h.reg, scopedRT, step)
				return err
			}

			res := scheduler.Run(runCtx, graph, dispatch, scheduler.Options{MaxConcurrency: rt.MaxConcurrency})
			if len(res.Failed) > 0 {
				for _, stepErr := range res.Failed {
					errs[i] = stepErr
					break
				}
				return
			}

			iterOut := scopedStore.Snapshot().Outputs
			out := make(map[string]any, len(iterOut))
			for k, v := range iterOut {
				out[k] = v
			}
			results[i] = out
		}(i, item)
	}
	wg.Wait()

	for i, stepErr := range errs {
		if stepErr != nil {
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID,
				fmt.Sprintf("loop iteration %d failed", i), stepErr)
		}
	}

	iterations := make([]any, len(results))
	for i, r := range results {
		iterations[i] = r
	}
	return map[string]any{
		"iterations": iterations,
		"count":      len(items),
	}, nil
}
