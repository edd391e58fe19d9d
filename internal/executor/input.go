package executor

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/flowdag/flowdag/internal/domain"
)

type inputConfig struct {
	Prompt  string `json:"prompt"`
	Default any    `json:"default"`
}

type inputHandler struct {
	prompt InputFunc
}

func newInputHandler(fn InputFunc) Handler {
	if fn == nil {
		fn = readStdinLine
	}
	return &inputHandler{prompt: fn}
}

func (h *inputHandler) Handle(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[inputConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid input config", err)
	}

	value, err := h.prompt(cfg.Prompt, cfg.Default)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to read input", err)
	}
	if value == "" && cfg.Default != nil {
		return cfg.Default, nil
	}
	return value, nil
}

func readStdinLine(prompt string, defaultValue any) (string, error) {
	if prompt != "" {
		fmt.Fprint(os.Stdout, prompt)
	}
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return "", scanner.Err()
	}
	return scanner.Text(), nil
}
