package executor

import (
	"context"
	"encoding/json"
	"os"

	"github.com/flowdag/flowdag/internal/domain"
)

type fileConfig struct {
	Path      string `json:"path"`
	Operation string `json:"operation"` // read, write, append
	Content   string `json:"content"`
	JSON      bool   `json:"json"`
}

func newFileHandler() Handler { return HandlerFunc(handleFile) }

func handleFile(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[fileConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid file config", err)
	}
	if cfg.Path == "" {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "file node requires path", nil)
	}

	switch cfg.Operation {
	case "", "read":
		data, err := os.ReadFile(cfg.Path)
		if err != nil {
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to read file", err)
		}
		if cfg.JSON {
			var v any
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "file contents are not valid JSON", err)
			}
			return v, nil
		}
		return string(data), nil

	case "write", "append":
		flags := os.O_WRONLY | os.O_CREATE
		if cfg.Operation == "append" {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(cfg.Path, flags, 0o644)
		if err != nil {
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to open file for writing", err)
		}
		defer f.Close()
		if _, err := f.WriteString(cfg.Content); err != nil {
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to write file", err)
		}
		return nil, nil

	default:
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "file operation must be read, write, or append", nil)
	}
}
