package anthropic

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ramizpolic/agenthost/pkg/llm"
)

const providerName = "anthropic"

const defaultMaxTokens = 4096

// Provider implements the llm.Provider interface for the Anthropic
// Messages API.
type Provider struct {
	client *Client
	model  string
}

// NewProvider creates an Anthropic provider for the given model. An empty
// baseURL selects the public endpoint.
func NewProvider(apiKey, baseURL, model string, timeout time.Duration) *Provider {
	return &Provider{
		client: NewClient(apiKey, baseURL, timeout),
		model:  model,
	}
}

func (p *Provider) CreateCompletion(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	model := req.Model
	if model == "" {
		model = p.model
	}

	resp, err := p.client.CreateMessage(ctx, CreateRequest{
		Model:       model,
		System:      req.SystemPrompt,
		Messages:    convertMessages(req.Messages),
		MaxTokens:   maxTokens,
		Tools:       convertTools(req.Tools),
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}

	return parseResponse(resp), nil
}

func (p *Provider) SupportsTools() bool {
	return true
}

func (p *Provider) Name() string {
	return providerName
}

// convertMessages maps the neutral history onto Anthropic content blocks.
// The system prompt is a top-level request field, never a message, and tool
// results travel as tool_result blocks inside a user-role message.
func convertMessages(messages []llm.Message) []MessageParam {
	params := make([]MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			// Carried on CreateRequest.System instead.
			continue

		case llm.RoleTool:
			var blocks []ContentBlock
			for _, res := range msg.ToolResults {
				blocks = append(blocks, ContentBlock{
					Type:      "tool_result",
					ToolUseID: res.ToolCallID,
					Content: []ContentBlock{{
						Type: "text",
						Text: res.Content,
					}},
					IsError: !res.Success,
				})
			}
			if len(blocks) > 0 {
				params = append(params, MessageParam{Role: "user", Content: blocks})
			}

		case llm.RoleAssistant:
			var blocks []ContentBlock
			if text := strings.TrimSpace(msg.Content); text != "" {
				blocks = append(blocks, ContentBlock{Type: "text", Text: text})
			}
			for _, call := range msg.ToolCalls {
				input, _ := json.Marshal(call.Arguments)
				blocks = append(blocks, ContentBlock{
					Type:  "tool_use",
					ID:    call.ID,
					Name:  call.Name,
					Input: input,
				})
			}
			if len(blocks) > 0 {
				params = append(params, MessageParam{Role: "assistant", Content: blocks})
			}

		default:
			params = append(params, MessageParam{
				Role: "user",
				Content: []ContentBlock{{
					Type: "text",
					Text: msg.Content,
				}},
			})
		}
	}

	return params
}

func convertTools(tools []llm.Tool) []Tool {
	converted := make([]Tool, len(tools))
	for i, tool := range tools {
		converted[i] = Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: InputSchema{
				Type:       tool.InputSchema.Type,
				Properties: tool.InputSchema.Properties,
				Required:   tool.InputSchema.Required,
			},
		}
	}
	return converted
}

// parseResponse extracts text and tool-use blocks from an API message. A
// response consisting solely of tool_use blocks is an expected outcome and
// yields empty Content with a populated ToolCalls slice.
func parseResponse(msg *APIMessage) *llm.CompletionResponse {
	resp := &llm.CompletionResponse{
		Usage: llm.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
	if msg.StopReason != nil {
		resp.FinishReason = *msg.StopReason
	}

	var text strings.Builder
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if text.Len() > 0 {
				text.WriteString(" ")
			}
			text.WriteString(block.Text)
		case "tool_use":
			var args map[string]any
			if err := json.Unmarshal(block.Input, &args); err != nil {
				args = map[string]any{}
			}
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}
	resp.Content = strings.TrimSpace(text.String())

	return resp
}
