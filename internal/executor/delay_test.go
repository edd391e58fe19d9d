package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/domain"
)

func TestDelayHandler_WaitsAndReturnsNull(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "d1", Kind: domain.NodeDelay}

	start := time.Now()
	out, err := handleDelay(context.Background(), node, map[string]any{"milliseconds": 20}, rt)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Nil(t, out)
}

func TestDelayHandler_CancelledContext(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "d1", Kind: domain.NodeDelay}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handleDelay(ctx, node, map[string]any{"milliseconds": 10_000}, rt)
	require.Error(t, err)
	code, ok := domain.Code(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCancellation, code)
}

func TestDelayHandler_NegativeMillisecondsFails(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "d1", Kind: domain.NodeDelay}

	_, err := handleDelay(context.Background(), node, map[string]any{"milliseconds": -1}, rt)
	require.Error(t, err)
}
