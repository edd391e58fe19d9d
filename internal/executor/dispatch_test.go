package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/domain"
	"github.com/flowdag/flowdag/internal/template"
)

func TestDispatch_ResolvesParamsAndRecordsOutput(t *testing.T) {
	reg := &Registry{handlers: map[domain.NodeKind]Handler{
		domain.NodeAssign: HandlerFunc(handleAssign),
	}}
	rt := &Runtime{
		Store:    domain.NewStore(map[string]any{"greeting": "hi"}),
		Resolver: template.New(),
	}
	node := domain.NodeDescriptor{
		ID:   "n1",
		Kind: domain.NodeAssign,
		Params: map[string]any{
			"assignments": []any{
				map[string]any{"key": "copy", "value": "{{ global.greeting }}"},
			},
		},
	}

	out, err := Dispatch(context.Background(), reg, rt, node)
	require.NoError(t, err)
	assert.NotNil(t, out)

	v, ok := rt.Store.GetOutput("n1")
	require.True(t, ok)
	assert.Equal(t, out, v)

	copied, _ := rt.Store.GetGlobal("copy")
	assert.Equal(t, "hi", copied)
}

func TestDispatch_UnknownKindFails(t *testing.T) {
	reg := &Registry{handlers: map[domain.NodeKind]Handler{}}
	rt := &Runtime{Store: domain.NewStore(nil), Resolver: template.New()}
	node := domain.NodeDescriptor{ID: "n1", Kind: domain.NodeKind("bogus")}

	_, err := Dispatch(context.Background(), reg, rt, node)
	require.Error(t, err)
}
