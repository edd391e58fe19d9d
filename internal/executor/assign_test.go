package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/domain"
)

func TestAssignHandler_SetMode(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(map[string]any{"counter": 0})}
	node := domain.NodeDescriptor{ID: "a1", Kind: domain.NodeAssign}

	out, err := handleAssign(context.Background(), node, map[string]any{
		"assignments": []any{
			map[string]any{"key": "counter", "value": 5},
		},
	}, rt)
	require.NoError(t, err)

	v, _ := rt.Store.GetGlobal("counter")
	assert.Equal(t, float64(5), v)
	assert.Equal(t, map[string]any{"counter": float64(5)}, out)
}

func TestAssignHandler_AppendMode(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(map[string]any{"items": []any{"a"}})}
	node := domain.NodeDescriptor{ID: "a1", Kind: domain.NodeAssign}

	_, err := handleAssign(context.Background(), node, map[string]any{
		"assignments": []any{
			map[string]any{"key": "items", "value": "b", "mode": "append"},
		},
	}, rt)
	require.NoError(t, err)

	v, _ := rt.Store.GetGlobal("items")
	assert.Equal(t, []any{"a", "b"}, v)
}

func TestAssignHandler_BatchAppliesInOrderAndReportsAllAffected(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "a1", Kind: domain.NodeAssign}

	out, err := handleAssign(context.Background(), node, map[string]any{
		"assignments": []any{
			map[string]any{"key": "a", "value": 1},
			map[string]any{"key": "b", "value": 2},
		},
	}, rt)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2)}, out)
}

func TestAssignHandler_MissingAssignmentsFails(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "a1", Kind: domain.NodeAssign}

	_, err := handleAssign(context.Background(), node, map[string]any{}, rt)
	require.Error(t, err)
}

func TestAssignHandler_MissingKeyFails(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "a1", Kind: domain.NodeAssign}

	_, err := handleAssign(context.Background(), node, map[string]any{
		"assignments": []any{map[string]any{"value": 1}},
	}, rt)
	require.Error(t, err)
}

func TestAssignHandler_InvalidModeFails(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "a1", Kind: domain.NodeAssign}

	_, err := handleAssign(context.Background(), node, map[string]any{
		"assignments": []any{map[string]any{"key": "x", "value": 1, "mode": "bogus"}},
	}, rt)
	require.Error(t, err)
}
