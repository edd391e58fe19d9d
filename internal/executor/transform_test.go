package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/domain"
)

func TestTransformHandler_PathExtractsArray(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "t1", Kind: domain.NodeTransform}

	out, err := handleTransform(context.Background(), node, map[string]any{
		"input": map[string]any{"xs": []any{1, 2, 3}},
		"path":  "$.xs[*]",
	}, rt)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, out)
}

func TestTransformHandler_PathExtractsScalar(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "t1", Kind: domain.NodeTransform}

	out, err := handleTransform(context.Background(), node, map[string]any{
		"input": map[string]any{"name": "ada"},
		"path":  "$.name",
	}, rt)
	require.NoError(t, err)
	assert.Equal(t, "ada", out)
}

func TestTransformHandler_ExtractNamesMultipleFields(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "t1", Kind: domain.NodeTransform}

	out, err := handleTransform(context.Background(), node, map[string]any{
		"input": map[string]any{"first": "ada", "last": "lovelace"},
		"extract": map[string]any{
			"given":  "$.first",
			"family": "$.last",
		},
	}, rt)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"given": "ada", "family": "lovelace"}, out)
}

func TestTransformHandler_InvalidPathFails(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "t1", Kind: domain.NodeTransform}

	_, err := handleTransform(context.Background(), node, map[string]any{
		"input": map[string]any{"a": 1},
		"path":  "$[not valid",
	}, rt)
	require.Error(t, err)
}

func TestTransformHandler_MissingPathAndExtractFails(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "t1", Kind: domain.NodeTransform}

	_, err := handleTransform(context.Background(), node, map[string]any{
		"input": map[string]any{"a": 1},
	}, rt)
	require.Error(t, err)
}
