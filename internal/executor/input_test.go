package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/domain"
)

func TestInputHandler_UsesCannedResponder(t *testing.T) {
	h := newInputHandler(func(prompt string, def any) (string, error) {
		assert.Equal(t, "name?", prompt)
		return "Ada", nil
	})
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "i1", Kind: domain.NodeInput}

	out, err := h.Handle(context.Background(), node, map[string]any{"prompt": "name?"}, rt)
	require.NoError(t, err)
	assert.Equal(t, "Ada", out)
}

func TestInputHandler_EmptyValueFallsBackToDefault(t *testing.T) {
	h := newInputHandler(func(prompt string, def any) (string, error) {
		return "", nil
	})
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "i1", Kind: domain.NodeInput}

	out, err := h.Handle(context.Background(), node, map[string]any{"default": "fallback"}, rt)
	require.NoError(t, err)
	assert.Equal(t, "fallback", out)
}
