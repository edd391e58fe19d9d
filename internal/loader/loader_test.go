package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/domain"
)

const validDoc = `
name: greet
version: "1"
global:
  name: world
nodes:
  - id: greet
    type: assign
    params:
      assignments:
        - key: message
          value: "hello {{ global.name }}"
`

func TestParse_ValidDocument(t *testing.T) {
	wf, err := Parse([]byte(validDoc))
	require.NoError(t, err)
	assert.Equal(t, "greet", wf.Name)
	require.Len(t, wf.Nodes, 1)
	assert.Equal(t, domain.NodeAssign, wf.Nodes[0].Kind)

	assignments := wf.Nodes[0].Params["assignments"].([]any)
	require.Len(t, assignments, 1)
	entry := assignments[0].(map[string]any)
	assert.Equal(t, "hello {{ global.name }}", entry["value"])
}

func TestParse_DuplicateIDFails(t *testing.T) {
	doc := `
nodes:
  - id: a
    type: delay
  - id: a
    type: delay
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	code, ok := domain.Code(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrLoad, code)
}

func TestParse_UnknownKindFails(t *testing.T) {
	doc := `
nodes:
  - id: a
    type: teleport
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestParse_MalformedYAMLFails(t *testing.T) {
	_, err := Parse([]byte("nodes: [this is not: valid: yaml"))
	require.Error(t, err)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/path/workflow.yaml")
	require.Error(t, err)
	code, ok := domain.Code(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrLoad, code)
}
