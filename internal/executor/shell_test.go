package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/domain"
)

func TestShellHandler_CapturesStdout(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "s1", Kind: domain.NodeShell}

	out, err := handleShell(context.Background(), node, map[string]any{"command": "echo hi"}, rt)
	require.NoError(t, err)

	m := out.(map[string]any)
	assert.Equal(t, "hi\n", m["stdout"])
	assert.Equal(t, 0, m["exit_code"])
}

func TestShellHandler_NonZeroExitFails(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "s1", Kind: domain.NodeShell}

	_, err := handleShell(context.Background(), node, map[string]any{"command": "exit 7"}, rt)
	require.Error(t, err)
	code, ok := domain.Code(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrHandler, code)
}

func TestShellHandler_IgnoreExitCodeSuppressesError(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "s1", Kind: domain.NodeShell}

	out, err := handleShell(context.Background(), node, map[string]any{
		"command": "exit 7", "ignore_exit_code": true,
	}, rt)
	require.NoError(t, err)
	assert.Equal(t, 7, out.(map[string]any)["exit_code"])
}

func TestShellHandler_MissingCommandFails(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "s1", Kind: domain.NodeShell}

	_, err := handleShell(context.Background(), node, map[string]any{}, rt)
	require.Error(t, err)
}

func TestShellHandler_TimeoutFailsWithTimeoutCode(t *testing.T) {
	rt := &Runtime{Store: domain.NewStore(nil)}
	node := domain.NodeDescriptor{ID: "s1", Kind: domain.NodeShell}

	_, err := handleShell(context.Background(), node, map[string]any{
		"command": "sleep 1", "timeout_ms": 10,
	}, rt)
	require.Error(t, err)
	code, ok := domain.Code(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrTimeout, code)
}
