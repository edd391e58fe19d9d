package executor

import (
	"context"
	"fmt"

	"github.com/PaesslerAG/jsonpath"

	"github.com/flowdag/flowdag/internal/domain"
)

type transformConfig struct {
	Input   any               `json:"input"`
	Path    string            `json:"path"`
	Extract map[string]string `json:"extract"`
}

// transformHandler evaluates JSONPath expressions against a node's input:
// either a single path, whose extracted value becomes the node's output,
// or a named set of paths under extract, whose extracted values become
// an Object keyed by name. github.com/PaesslerAG/jsonpath is adopted for
// this since the teacher has only plain JSON unmarshaling and no query
// language at all.
func newTransformHandler() Handler { return HandlerFunc(handleTransform) }

func handleTransform(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[transformConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid transform config", err)
	}

	switch {
	case cfg.Path != "":
		out, err := jsonpath.Get(cfg.Path, cfg.Input)
		if err != nil {
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID, fmt.Sprintf("invalid jsonpath %q", cfg.Path), err)
		}
		return out, nil

	case len(cfg.Extract) > 0:
		out := make(map[string]any, len(cfg.Extract))
		for name, path := range cfg.Extract {
			v, err := jsonpath.Get(path, cfg.Input)
			if err != nil {
				return nil, domain.NewNodeError(domain.ErrHandler, node.ID, fmt.Sprintf("invalid jsonpath %q for %q", path, name), err)
			}
			out[name] = v
		}
		return out, nil

	default:
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "transform node requires path or extract", nil)
	}
}
