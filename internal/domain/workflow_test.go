package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowValidate_DuplicateID(t *testing.T) {
	wf := &WorkflowDescriptor{
		Nodes: []NodeDescriptor{
			{ID: "a", Kind: NodeDelay},
			{ID: "a", Kind: NodeDelay},
		},
	}

	err := wf.Validate()
	require.Error(t, err)
	code, ok := Code(err)
	require.True(t, ok)
	assert.Equal(t, ErrLoad, code)
}

func TestWorkflowValidate_UnknownKind(t *testing.T) {
	wf := &WorkflowDescriptor{
		Nodes: []NodeDescriptor{
			{ID: "a", Kind: NodeKind("bogus")},
		},
	}

	err := wf.Validate()
	require.Error(t, err)
}

func TestWorkflowValidate_DanglingNeeds(t *testing.T) {
	wf := &WorkflowDescriptor{
		Nodes: []NodeDescriptor{
			{ID: "a", Kind: NodeDelay, Needs: []string{"ghost"}},
		},
	}

	err := wf.Validate()
	require.Error(t, err)
}

func TestWorkflowValidate_OK(t *testing.T) {
	wf := &WorkflowDescriptor{
		Nodes: []NodeDescriptor{
			{ID: "a", Kind: NodeDelay},
			{ID: "b", Kind: NodeDelay, Needs: []string{"a"}},
		},
	}

	assert.NoError(t, wf.Validate())
}

func TestValidateScoped_RejectsOutsideReference(t *testing.T) {
	nodes := []NodeDescriptor{
		{ID: "inner", Kind: NodeDelay, Needs: []string{"outer"}},
	}
	err := ValidateScoped(nodes)
	require.Error(t, err)
}
