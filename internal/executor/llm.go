package executor

import (
	"context"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/flowdag/flowdag/internal/domain"
)

const defaultAPIKeyEnv = "OPENAI_API_KEY"
const defaultTemperature = 0.7

type llmConfig struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	System      string  `json:"system"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	BaseURL     string  `json:"base_url"`
	APIKeyEnv   string  `json:"api_key_env"`
}

// LLMClient is the narrow surface the llm node needs from an OpenAI-style
// client, so tests can substitute a stub without a real API key.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type llmHandler struct {
	client LLMClient
}

func newLLMHandler(client LLMClient) Handler {
	return &llmHandler{client: client}
}

// resolveClient returns h's injected client unless the node overrides
// base_url or api_key_env, in which case it builds a dedicated
// openai.Client pointed at that base URL with a key read from the named
// environment variable (OPENAI_API_KEY by default).
func (h *llmHandler) resolveClient(cfg llmConfig) LLMClient {
	if cfg.BaseURL == "" && cfg.APIKeyEnv == "" {
		return h.client
	}
	apiKeyEnv := cfg.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = defaultAPIKeyEnv
	}
	config := openai.DefaultConfig(os.Getenv(apiKeyEnv))
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(config)
}

func (h *llmHandler) Handle(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[llmConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid llm config", err)
	}
	if cfg.Prompt == "" {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "llm node requires prompt", nil)
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}

	client := h.resolveClient(cfg)
	if client == nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "llm node has no configured client", nil)
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	var messages []openai.ChatCompletionMessage
	if cfg.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: cfg.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: cfg.Prompt,
	})

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "llm request failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "llm response had no choices", nil)
	}

	return map[string]any{
		"content": resp.Choices[0].Message.Content,
		"model":   resp.Model,
		"usage": map[string]any{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		},
	}, nil
}
