package ollama

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	api "github.com/ollama/ollama/api"

	"github.com/ramizpolic/agenthost/pkg/llm"
)

const providerName = "ollama"

func boolPtr(b bool) *bool {
	return &b
}

// Provider implements the llm.Provider interface for a local Ollama server.
type Provider struct {
	client *api.Client
	model  string
}

// NewProvider creates an Ollama provider. The server address comes from the
// OLLAMA_HOST environment, matching the ollama CLI.
func NewProvider(model string) (*Provider, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, &llm.ProviderError{Provider: providerName, Err: err}
	}
	return &Provider{
		client: client,
		model:  model,
	}, nil
}

func (p *Provider) CreateCompletion(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	log.Debug("creating completion",
		"provider", providerName,
		"num_messages", len(req.Messages),
		"num_tools", len(req.Tools))

	model := req.Model
	if model == "" {
		model = p.model
	}

	options := map[string]any{}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	var response api.ChatResponse
	err := p.client.Chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: convertMessages(req.SystemPrompt, req.Messages),
		Tools:    convertTools(req.Tools),
		Stream:   boolPtr(false),
		Options:  options,
	}, func(r api.ChatResponse) error {
		if r.Done {
			response = r
		}
		return nil
	})
	if err != nil {
		return nil, &llm.ProviderError{Provider: providerName, RawMessage: err.Error(), Err: err}
	}

	return parseResponse(response), nil
}

// SupportsTools reports whether the configured model declares tool support
// in its modelfile template.
func (p *Provider) SupportsTools() bool {
	resp, err := p.client.Show(context.Background(), &api.ShowRequest{
		Model: p.model,
	})
	if err != nil {
		return false
	}
	return strings.Contains(resp.Template, ".Tools") ||
		strings.Contains(resp.Modelfile, "<tools>")
}

func (p *Provider) Name() string {
	return providerName
}

// convertMessages maps the neutral history onto Ollama's chat format. The
// system prompt is an ordinary message with the "system" role here, and
// tool results use the "tool" role. The request carries at most one system
// message: the history's seeded system message duplicates the request-level
// prompt and is skipped once one has been emitted.
func convertMessages(systemPrompt string, messages []llm.Message) []api.Message {
	ollamaMessages := make([]api.Message, 0, len(messages)+1)

	haveSystem := systemPrompt != ""
	if haveSystem {
		ollamaMessages = append(ollamaMessages, api.Message{
			Role:    "system",
			Content: systemPrompt,
		})
	}

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			if haveSystem || msg.Content == "" {
				continue
			}
			ollamaMessages = append(ollamaMessages, api.Message{
				Role:    "system",
				Content: msg.Content,
			})
			haveSystem = true

		case llm.RoleTool:
			for _, res := range msg.ToolResults {
				ollamaMessages = append(ollamaMessages, api.Message{
					Role:    "tool",
					Content: res.Content,
				})
			}

		case llm.RoleAssistant:
			ollamaMsg := api.Message{
				Role:    "assistant",
				Content: msg.Content,
			}
			for _, call := range msg.ToolCalls {
				ollamaMsg.ToolCalls = append(ollamaMsg.ToolCalls, api.ToolCall{
					Function: api.ToolCallFunction{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
			ollamaMessages = append(ollamaMessages, ollamaMsg)

		default:
			if msg.Content == "" {
				continue
			}
			ollamaMessages = append(ollamaMessages, api.Message{
				Role:    string(msg.Role),
				Content: msg.Content,
			})
		}
	}

	return ollamaMessages
}

func convertTools(tools []llm.Tool) []api.Tool {
	ollamaTools := make([]api.Tool, len(tools))
	for i, tool := range tools {
		ollamaTools[i] = api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: struct {
					Type       string   `json:"type"`
					Required   []string `json:"required"`
					Properties map[string]struct {
						Type        string   `json:"type"`
						Description string   `json:"description"`
						Enum        []string `json:"enum,omitempty"`
					} `json:"properties"`
				}{
					Type:       tool.InputSchema.Type,
					Required:   tool.InputSchema.Required,
					Properties: convertProperties(tool.InputSchema.Properties),
				},
			},
		}
	}
	return ollamaTools
}

// parseResponse converts the final chat response. Ollama has no tool-call
// ids, so calls are keyed positionally; a response with tool calls and no
// content is expected.
func parseResponse(r api.ChatResponse) *llm.CompletionResponse {
	resp := &llm.CompletionResponse{
		Content:      r.Message.Content,
		FinishReason: r.DoneReason,
		Usage: llm.Usage{
			InputTokens:  r.Metrics.PromptEvalCount,
			OutputTokens: r.Metrics.EvalCount,
		},
	}

	for _, call := range r.Message.ToolCalls {
		args := map[string]any(call.Function.Arguments)
		if args == nil {
			args = map[string]any{}
		}
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			Name:      call.Function.Name,
			Arguments: args,
		})
	}

	return resp
}

// convertProperties narrows the neutral property maps to the subset Ollama
// models understand.
func convertProperties(props map[string]any) map[string]struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
} {
	result := make(map[string]struct {
		Type        string   `json:"type"`
		Description string   `json:"description"`
		Enum        []string `json:"enum,omitempty"`
	})

	for name, prop := range props {
		propMap, ok := prop.(map[string]any)
		if !ok {
			continue
		}
		converted := struct {
			Type        string   `json:"type"`
			Description string   `json:"description"`
			Enum        []string `json:"enum,omitempty"`
		}{
			Type:        getString(propMap, "type"),
			Description: getString(propMap, "description"),
		}

		switch enum := propMap["enum"].(type) {
		case []string:
			converted.Enum = enum
		case []any:
			for _, e := range enum {
				if str, ok := e.(string); ok {
					converted.Enum = append(converted.Enum, str)
				}
			}
		}

		result[name] = converted
	}
	return result
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
