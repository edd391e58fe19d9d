package executor

import (
	"context"

	"github.com/flowdag/flowdag/internal/domain"
)

type assignment struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	Mode  string `json:"mode"`
}

type assignConfig struct {
	Assignments []assignment `json:"assignments"`
}

// newAssignHandler applies a batch of global mutations in order and
// returns an Object of every global key touched, with its value after
// all assignments in the batch have been applied.
func newAssignHandler() Handler { return HandlerFunc(handleAssign) }

func handleAssign(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[assignConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid assign config", err)
	}
	if len(cfg.Assignments) == 0 {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "assign node requires assignments", nil)
	}

	affected := make(map[string]any, len(cfg.Assignments))
	for _, a := range cfg.Assignments {
		if a.Key == "" {
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "assign entry requires key", nil)
		}
		switch a.Mode {
		case "append":
			rt.Store.AppendGlobal(a.Key, a.Value)
		case "", "set":
			rt.Store.SetGlobal(a.Key, a.Value)
		default:
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "assign mode must be set or append", nil)
		}
		affected[a.Key], _ = rt.Store.GetGlobal(a.Key)
	}

	return affected, nil
}
