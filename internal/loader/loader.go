// Package loader parses a workflow YAML document into a
// domain.WorkflowDescriptor and applies the load-time validation rules
// described in spec §4.9. YAML parsing itself is a small, mechanical
// concern the teacher doesn't need (mbflow builds workflows
// programmatically via pkg/workflow's fluent builder); this package
// exists because the spec treats "given a workflow file, produce a
// runnable descriptor" as a first-class operation.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flowdag/flowdag/internal/domain"
)

// document is the raw YAML shape of a workflow file.
type document struct {
	Name    string         `yaml:"name"`
	Version string         `yaml:"version"`
	Global  map[string]any `yaml:"global"`
	Nodes   []nodeDocument `yaml:"nodes"`
}

type nodeDocument struct {
	ID     string         `yaml:"id"`
	Kind   string         `yaml:"type"`
	Name   string         `yaml:"name"`
	Needs  []string       `yaml:"needs"`
	Params map[string]any `yaml:"params"`
}

// Load reads and parses the workflow document at path, returning a
// validated domain.WorkflowDescriptor ready for a run. Validation
// failures (duplicate ids, unknown kinds, dangling needs) are reported as
// a domain.Error with code ErrLoad.
func Load(path string) (*domain.WorkflowDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError(domain.ErrLoad, fmt.Sprintf("failed to read workflow file %q", path), err)
	}
	return Parse(data)
}

// Parse parses raw YAML bytes into a validated domain.WorkflowDescriptor.
func Parse(data []byte) (*domain.WorkflowDescriptor, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, domain.NewError(domain.ErrLoad, "failed to parse workflow YAML", err)
	}

	nodes := make([]domain.NodeDescriptor, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodes = append(nodes, domain.NodeDescriptor{
			ID:     n.ID,
			Kind:   domain.NodeKind(n.Kind),
			Name:   n.Name,
			Needs:  n.Needs,
			Params: n.Params,
		})
	}

	wf := &domain.WorkflowDescriptor{
		Name:    doc.Name,
		Version: doc.Version,
		Global:  doc.Global,
		Nodes:   nodes,
	}

	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return wf, nil
}
