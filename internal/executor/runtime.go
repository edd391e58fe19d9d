package executor

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/flowdag/flowdag/internal/domain"
	"github.com/flowdag/flowdag/internal/template"
)

// Runtime is the per-run context handed to every Handler invocation: the
// memory store for the current scope, the template resolver, and a
// logger already annotated with run/node identifiers.
type Runtime struct {
	Store          *domain.Store
	Resolver       *template.Resolver
	Log            zerolog.Logger
	RunID          string
	Registry       *Registry
	MaxConcurrency int
}

// InputFunc prompts for a value on behalf of the input node (§4.3). When
// Dependencies.Input is nil the input handler falls back to
// readStdinLine (input.go), which reads a line from stdin; tests
// substitute a canned responder.
type InputFunc func(prompt string, defaultValue any) (string, error)

// Dependencies bundles everything NewRegistry needs to build the twelve
// handlers; all fields are optional, convenience defaults are used when
// nil (see each handler constructor). The loop handler talks to
// internal/scheduler directly (executor -> scheduler is one-directional,
// so no callback indirection is needed here).
type Dependencies struct {
	HTTPClient *http.Client
	LLMClient  LLMClient
	Input      InputFunc
}

// parseConfig decodes a resolved params map into a typed struct via a
// JSON marshal/unmarshal round trip. Grounded on
// internal/application/executor/config_parser.go's generic parseConfig,
// reused here for every handler's param struct instead of hand-written
// per-field type assertions.
func parseConfig[T any](params map[string]any) (*T, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	var cfg T
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
