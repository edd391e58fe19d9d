package executor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/domain"
)

func TestFileHandler_WriteThenRead(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "f1", Kind: domain.NodeFile}
	path := filepath.Join(t.TempDir(), "out.txt")

	out, err := handleFile(context.Background(), node, map[string]any{
		"path": path, "operation": "write", "content": "hello",
	}, rt)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = handleFile(context.Background(), node, map[string]any{"path": path, "operation": "read"}, rt)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestFileHandler_Append(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "f1", Kind: domain.NodeFile}
	path := filepath.Join(t.TempDir(), "out.txt")

	_, err := handleFile(context.Background(), node, map[string]any{"path": path, "operation": "write", "content": "a"}, rt)
	require.NoError(t, err)
	out, err := handleFile(context.Background(), node, map[string]any{"path": path, "operation": "append", "content": "b"}, rt)
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = handleFile(context.Background(), node, map[string]any{"path": path, "operation": "read"}, rt)
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestFileHandler_ReadJSON(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "f1", Kind: domain.NodeFile}
	path := filepath.Join(t.TempDir(), "out.json")

	_, err := handleFile(context.Background(), node, map[string]any{
		"path": path, "operation": "write", "content": `{"a":1}`,
	}, rt)
	require.NoError(t, err)

	out, err := handleFile(context.Background(), node, map[string]any{"path": path, "operation": "read", "json": true}, rt)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, out)
}

func TestFileHandler_MissingPathFails(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "f1", Kind: domain.NodeFile}

	_, err := handleFile(context.Background(), node, map[string]any{"operation": "read"}, rt)
	require.Error(t, err)
}

func TestFileHandler_InvalidOperationFails(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "f1", Kind: domain.NodeFile}

	_, err := handleFile(context.Background(), node, map[string]any{"path": "x", "operation": "bogus"}, rt)
	require.Error(t, err)
}
