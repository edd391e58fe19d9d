package executor

import (
	"context"
	"time"

	"github.com/flowdag/flowdag/internal/domain"
)

type delayConfig struct {
	Milliseconds int `json:"milliseconds"`
}

func newDelayHandler() Handler { return HandlerFunc(handleDelay) }

func handleDelay(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[delayConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid delay config", err)
	}
	if cfg.Milliseconds < 0 {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "delay milliseconds must be >= 0", nil)
	}

	timer := time.NewTimer(time.Duration(cfg.Milliseconds) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, domain.NewNodeError(domain.ErrCancellation, node.ID, "delay interrupted", ctx.Err())
	}
}
