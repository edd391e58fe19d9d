package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/domain"
)

func TestMCPHandler_RequiresCommand(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "m1", Kind: domain.NodeMCP}

	_, err := handleMCP(context.Background(), node, map[string]any{"tool": "search"}, rt)
	require.Error(t, err)
}

func TestMCPHandler_RequiresTool(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "m1", Kind: domain.NodeMCP}

	_, err := handleMCP(context.Background(), node, map[string]any{"command": "mcp-server"}, rt)
	require.Error(t, err)
}
