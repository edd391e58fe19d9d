package executor

import (
	"context"
	"fmt"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flowdag/flowdag/internal/domain"
)

type mcpConfig struct {
	Command   string            `json:"command"`
	Args      []string          `json:"args"`
	Env       map[string]string `json:"env"`
	Tool      string            `json:"tool"`
	Arguments map[string]any    `json:"arguments"`
}

// mcpHandler starts a stdio MCP server process per invocation, calls one
// tool, and tears the connection down. A longer-lived process pool (kept
// warm across nodes) is a natural extension but the spec's node model has
// no lifecycle hook for that yet, so each call is self-contained.
// Grounded on tombee-conductor's internal/mcp.Client, trimmed to the
// single initialize -> call-tool -> close path the mcp node needs.
func newMCPHandler() Handler { return HandlerFunc(handleMCP) }

func handleMCP(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[mcpConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid mcp config", err)
	}
	if cfg.Command == "" {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "mcp node requires command", nil)
	}
	if cfg.Tool == "" {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "mcp node requires tool", nil)
	}

	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}

	client, err := mcpclient.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to create mcp client", err)
	}
	defer client.Close()

	if err := client.Start(ctx); err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to start mcp server", err)
	}

	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    "flowdag",
				Version: "0.1.0",
			},
		},
	}
	if _, err := client.Initialize(ctx, initReq); err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "mcp initialize failed", err)
	}

	callReq := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      cfg.Tool,
			Arguments: cfg.Arguments,
		},
	}
	result, err := client.CallTool(ctx, callReq)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, fmt.Sprintf("mcp tool %q call failed", cfg.Tool), err)
	}

	texts := make([]string, 0, len(result.Content))
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			texts = append(texts, tc.Text)
		}
	}

	if result.IsError {
		return map[string]any{"content": texts}, domain.NewNodeError(domain.ErrHandler, node.ID,
			fmt.Sprintf("mcp tool %q returned an error result", cfg.Tool), nil)
	}

	return map[string]any{"content": texts}, nil
}
