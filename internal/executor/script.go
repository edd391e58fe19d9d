package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"time"

	"github.com/flowdag/flowdag/internal/domain"
)

type scriptConfig struct {
	Language  string `json:"language"`
	Script    string `json:"script"`
	TimeoutMS int    `json:"timeout_ms"`
}

// interpreterFor maps a script node's language to the interpreter binary
// and the temp-file extension it expects.
func interpreterFor(language string) (bin, ext string, ok bool) {
	switch language {
	case "python", "python3":
		return "python3", "*.py", true
	case "javascript", "js", "node":
		return "node", "*.js", true
	default:
		return "", "", false
	}
}

// newScriptHandler spawns a real interpreter subprocess per invocation,
// the same way handleShell spawns a shell: the script body is written to
// a temp file and run to completion, with stdout/stderr captured and the
// exit code reported rather than treated as a hard failure by itself.
// stdout is opportunistically parsed as JSON and exposed under
// parsed_json when that succeeds.
func newScriptHandler() Handler { return HandlerFunc(handleScript) }

func handleScript(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[scriptConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid script config", err)
	}
	if cfg.Script == "" {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "script node requires script", nil)
	}
	bin, ext, ok := interpreterFor(cfg.Language)
	if !ok {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "script node requires language python, python3, javascript, js, or node", nil)
	}

	tmp, err := os.CreateTemp("", ext)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to create script temp file", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(cfg.Script); err != nil {
		tmp.Close()
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to write script temp file", err)
	}
	tmp.Close()

	runCtx := ctx
	var cancel context.CancelFunc
	if cfg.TimeoutMS > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, bin, tmp.Name())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		if runCtx.Err() != nil {
			return nil, domain.NewNodeError(domain.ErrTimeout, node.ID, "script timed out", runCtx.Err())
		}
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to start script interpreter", runErr)
		}
	}

	out := map[string]any{
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
		"exit_code": exitCode,
	}
	var parsed any
	if json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &parsed) == nil {
		out["parsed_json"] = parsed
	}

	if exitCode != 0 {
		return out, domain.NewNodeError(domain.ErrHandler, node.ID, "script exited non-zero", nil)
	}
	return out, nil
}
