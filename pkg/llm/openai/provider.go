package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ramizpolic/agenthost/pkg/llm"
)

const providerName = "openai"

// Provider implements the llm.Provider interface on top of the official
// OpenAI Go SDK. It also serves any OpenAI-compatible endpoint via baseURL.
type Provider struct {
	client openai.Client
	model  string
}

// NewProvider creates an OpenAI provider for the given model. An empty
// baseURL selects api.openai.com.
func NewProvider(apiKey, baseURL, model string, timeout time.Duration) *Provider {
	return newProvider(model, option.WithAPIKey(apiKey), option.WithRequestTimeout(timeout), baseURLOption(baseURL))
}

// NewProviderWithClient creates a provider over a caller-supplied HTTP
// client, used for self-hosted gateways that need custom TLS settings.
func NewProviderWithClient(apiKey, baseURL, model string, httpClient *http.Client) *Provider {
	return newProvider(model, option.WithAPIKey(apiKey), option.WithHTTPClient(httpClient), baseURLOption(baseURL))
}

func newProvider(model string, opts ...option.RequestOption) *Provider {
	return &Provider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func baseURLOption(baseURL string) option.RequestOption {
	if baseURL == "" {
		return option.WithBaseURL("https://api.openai.com/v1/")
	}
	return option.WithBaseURL(baseURL)
}

func (p *Provider) CreateCompletion(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(req.SystemPrompt, req.Messages),
		Tools:    convertTools(req.Tools),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, &llm.ProviderError{Provider: providerName, RawMessage: "response contained no choices"}
	}

	return parseChoice(completion.Choices[0], completion.Usage), nil
}

func (p *Provider) SupportsTools() bool {
	return true
}

func (p *Provider) Name() string {
	return providerName
}

// convertMessages maps the neutral history onto chat completion params. The
// system prompt is an ordinary message in OpenAI's role vocabulary, and tool
// results use the dedicated "tool" role keyed by tool_call_id. The request
// carries at most one system message: a seeded system message in the history
// duplicates the request-level prompt and is skipped once one was emitted.
func convertMessages(systemPrompt string, messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	var params []openai.ChatCompletionMessageParamUnion

	haveSystem := systemPrompt != ""
	if haveSystem {
		params = append(params, openai.SystemMessage(systemPrompt))
	}

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			if haveSystem || msg.Content == "" {
				continue
			}
			params = append(params, openai.SystemMessage(msg.Content))
			haveSystem = true

		case llm.RoleUser:
			params = append(params, openai.UserMessage(msg.Content))

		case llm.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				params = append(params, openai.AssistantMessage(msg.Content))
				continue
			}
			var toolCalls []openai.ChatCompletionMessageToolCallParam
			for _, tc := range msg.ToolCalls {
				args, _ := json.Marshal(tc.Arguments)
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(args),
					},
				})
			}
			assistantParam := openai.ChatCompletionAssistantMessageParam{
				ToolCalls: toolCalls,
			}
			if msg.Content != "" {
				assistantParam.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			params = append(params, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &assistantParam,
			})

		case llm.RoleTool:
			for _, res := range msg.ToolResults {
				params = append(params, openai.ToolMessage(res.Content, res.ToolCallID))
			}
		}
	}

	return params
}

func convertTools(tools []llm.Tool) []openai.ChatCompletionToolParam {
	var converted []openai.ChatCompletionToolParam
	for _, tool := range tools {
		converted = append(converted, openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters: openai.FunctionParameters{
					"type":       tool.InputSchema.Type,
					"properties": tool.InputSchema.Properties,
					"required":   tool.InputSchema.Required,
				},
			},
		})
	}
	return converted
}

// parseChoice converts one completion choice into the neutral response. A
// choice carrying only tool calls and no content is an expected outcome.
func parseChoice(choice openai.ChatCompletionChoice, usage openai.CompletionUsage) *llm.CompletionResponse {
	resp := &llm.CompletionResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: llm.Usage{
			InputTokens:  int(usage.PromptTokens),
			OutputTokens: int(usage.CompletionTokens),
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			args = map[string]any{}
		}
		resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return resp
}

// classifyError maps SDK errors onto the shared taxonomy using the HTTP
// status the SDK exposes.
func classifyError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		raw := apierr.Message
		if raw == "" {
			raw = apierr.Error()
		}
		return llm.ClassifyStatus(providerName, apierr.StatusCode, raw, err)
	}
	return &llm.ProviderError{Provider: providerName, Err: err}
}
