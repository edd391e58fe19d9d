package executor

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/flowdag/flowdag/internal/domain"
)

type shellConfig struct {
	Command        string            `json:"command"`
	Args           []string          `json:"args"`
	Shell          string            `json:"shell"`
	WorkingDir     string            `json:"working_dir"`
	Env            map[string]string `json:"env"`
	TimeoutMS      int               `json:"timeout_ms"`
	IgnoreExitCode bool              `json:"ignore_exit_code"`
}

func newShellHandler() Handler { return HandlerFunc(handleShell) }

func handleShell(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[shellConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid shell config", err)
	}
	if cfg.Command == "" {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "shell node requires command", nil)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if cfg.TimeoutMS > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	shell := cfg.Shell
	if shell == "" {
		shell = "sh"
	}

	var cmd *exec.Cmd
	if len(cfg.Args) > 0 {
		cmd = exec.CommandContext(runCtx, cfg.Command, cfg.Args...)
	} else {
		cmd = exec.CommandContext(runCtx, shell, "-c", cfg.Command)
	}
	if cfg.WorkingDir != "" {
		cmd.Dir = cfg.WorkingDir
	}
	if len(cfg.Env) > 0 {
		env := cmd.Environ()
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		if runCtx.Err() != nil {
			return nil, domain.NewNodeError(domain.ErrTimeout, node.ID, "shell command timed out", runCtx.Err())
		}
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to start shell command", runErr)
		}
	}

	out := map[string]any{
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
		"exit_code": exitCode,
	}
	if exitCode != 0 && !cfg.IgnoreExitCode {
		return out, domain.NewNodeError(domain.ErrHandler, node.ID, "shell command exited non-zero", nil)
	}
	return out, nil
}
