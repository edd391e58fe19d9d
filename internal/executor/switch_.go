package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/flowdag/flowdag/internal/domain"
)

// switchConfig is a two-branch boolean evaluator: condition is a trivial
// infix comparison over scalars (==, !=, <, <=, >, >=) or the literals
// true/false, and the node returns trueValue or falseValue accordingly.
type switchConfig struct {
	Condition  string `json:"condition"`
	TrueValue  any    `json:"true_value"`
	FalseValue any    `json:"false_value"`
}

// switchHandler caches compiled expr-lang programs per condition string
// across the node's lifetime, since the same workflow document is
// typically re-run many times with the same condition expressions. Grounded
// on internal/application/executor/conditions.go's ConditionEvaluator,
// which keeps the same kind of compiled-program cache.
type switchHandler struct {
	cache map[string]*vm.Program
}

func newSwitchHandler() Handler {
	return &switchHandler{cache: make(map[string]*vm.Program)}
}

func (h *switchHandler) Handle(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[switchConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid switch config", err)
	}
	if cfg.Condition == "" {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "switch node requires condition", nil)
	}

	env := conditionEnv(rt.Store.Snapshot())

	prog, ok := h.cache[cfg.Condition]
	if !ok {
		prog, err = expr.Compile(cfg.Condition, expr.Env(env), expr.AsBool())
		if err != nil {
			// With a map environment an absent variable is already
			// rejected at compile time ("unknown name"); it gets the same
			// "condition false" treatment as the run-time case below.
			if isVariableNotFoundError(err) {
				return cfg.FalseValue, nil
			}
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID,
				fmt.Sprintf("invalid switch condition %q", cfg.Condition), err)
		}
		h.cache[cfg.Condition] = prog
	}

	out, err := expr.Run(prog, env)
	if err != nil {
		// A reference to a variable that doesn't exist yet (e.g. an
		// upstream node skipped) is treated as "condition false"
		// rather than a hard failure, matching the teacher's
		// ConditionEvaluator leniency on not-yet-available variables.
		if isVariableNotFoundError(err) {
			return cfg.FalseValue, nil
		}
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID,
			fmt.Sprintf("failed to evaluate switch condition %q", cfg.Condition), err)
	}
	if matched, ok := out.(bool); ok && matched {
		return cfg.TrueValue, nil
	}
	return cfg.FalseValue, nil
}

// conditionEnv builds the expr-lang evaluation environment from a memory
// snapshot: global variables at the top level plus nodes/loop namespaces,
// mirroring the teacher's normalizeVariables flattening.
func conditionEnv(snap domain.Snapshot) map[string]any {
	env := make(map[string]any, len(snap.Global)+2)
	for k, v := range snap.Global {
		env[k] = v
	}
	env["global"] = snap.Global
	nodes := make(map[string]any, len(snap.Outputs))
	for id, out := range snap.Outputs {
		nodes[id] = map[string]any{"output": out}
	}
	env["nodes"] = nodes
	if snap.Loop != nil {
		env["loop"] = map[string]any{
			"item":  snap.Loop.Item,
			"index": snap.Loop.Index,
			"total": snap.Loop.Total,
		}
	}
	return env
}

func isVariableNotFoundError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, substr := range []string{"cannot fetch", "undefined", "unknown name", "nil pointer", "not found"} {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
