package google

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/ramizpolic/agenthost/pkg/llm"
)

const providerName = "google"

// Provider implements the llm.Provider interface for the Gemini API via the
// google.golang.org/genai SDK.
type Provider struct {
	client *genai.Client
	model  string
}

// NewProvider creates a Gemini provider for the given model.
func NewProvider(ctx context.Context, apiKey, model string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &llm.CredentialsError{Provider: providerName, Err: err}
	}
	return &Provider{client: client, model: model}, nil
}

func (p *Provider) CreateCompletion(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	config := &genai.GenerateContentConfig{
		Tools: convertTools(req.Tools),
	}
	if req.SystemPrompt != "" {
		// Gemini takes the system prompt as a dedicated instruction, not a
		// conversation message.
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, convertMessages(req.Messages), config)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &llm.ProviderError{Provider: providerName, RawMessage: "response contained no candidates"}
	}

	return parseResponse(resp), nil
}

func (p *Provider) SupportsTools() bool {
	return true
}

func (p *Provider) Name() string {
	return providerName
}

// convertMessages maps the neutral history onto Gemini contents. Gemini has
// no assistant or tool role: model turns use "model", and tool results ride
// as FunctionResponse parts inside a user turn.
func convertMessages(messages []llm.Message) []*genai.Content {
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			// Carried as SystemInstruction instead.
			continue

		case llm.RoleAssistant:
			var parts []*genai.Part
			if text := strings.TrimSpace(msg.Content); text != "" {
				parts = append(parts, &genai.Part{Text: text})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Arguments,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
			}

		case llm.RoleTool:
			var parts []*genai.Part
			for _, res := range msg.ToolResults {
				response := map[string]any{"output": res.Content}
				if !res.Success {
					response = map[string]any{"error": res.Content}
				}
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       res.ToolCallID,
						Name:     res.ToolName,
						Response: response,
					},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
			}

		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	return contents
}

// convertTools wraps every declaration in the container object the Gemini
// endpoint requires.
func convertTools(tools []llm.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	declarations := make([]*genai.FunctionDeclaration, len(tools))
	for i, tool := range tools {
		declarations[i] = &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  convertSchema(tool.InputSchema),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func convertSchema(schema llm.Schema) *genai.Schema {
	s := &genai.Schema{
		Type:       toType(schema.Type),
		Required:   schema.Required,
		Properties: make(map[string]*genai.Schema),
	}

	for name, prop := range schema.Properties {
		if m, ok := prop.(map[string]any); ok {
			s.Properties[name] = propertyToSchema(m)
		}
	}

	if len(s.Properties) == 0 {
		// Gemini rejects OBJECT parameter schemas with no properties, so a
		// no-argument tool gets a nullable placeholder argument.
		s.Nullable = genai.Ptr(true)
		s.Properties["unused"] = &genai.Schema{
			Type:     genai.TypeInteger,
			Nullable: genai.Ptr(true),
		}
	}
	return s
}

func propertyToSchema(prop map[string]any) *genai.Schema {
	typ, _ := prop["type"].(string)
	s := &genai.Schema{Type: toType(typ)}
	if desc, ok := prop["description"].(string); ok {
		s.Description = desc
	}
	if enum, ok := prop["enum"].([]string); ok {
		s.Enum = enum
	} else if enumAny, ok := prop["enum"].([]any); ok {
		for _, e := range enumAny {
			if str, ok := e.(string); ok {
				s.Enum = append(s.Enum, str)
			}
		}
	}
	if min, ok := prop["minimum"].(float64); ok {
		s.Minimum = genai.Ptr(min)
	}
	if max, ok := prop["maximum"].(float64); ok {
		s.Maximum = genai.Ptr(max)
	}

	switch s.Type {
	case genai.TypeObject:
		if objectProps, ok := prop["properties"].(map[string]any); ok {
			s.Properties = make(map[string]*genai.Schema)
			for name, sub := range objectProps {
				if m, ok := sub.(map[string]any); ok {
					s.Properties[name] = propertyToSchema(m)
				}
			}
		}
	case genai.TypeArray:
		if items, ok := prop["items"].(map[string]any); ok {
			s.Items = propertyToSchema(items)
		}
	}
	return s
}

func toType(typ string) genai.Type {
	switch typ {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeObject
	}
}

// parseResponse works with the first candidate only; generation is
// configured for a single candidate anyway. A candidate made of nothing but
// FunctionCall parts is an expected outcome.
func parseResponse(resp *genai.GenerateContentResponse) *llm.CompletionResponse {
	candidate := resp.Candidates[0]

	out := &llm.CompletionResponse{
		FinishReason: string(candidate.FinishReason),
	}
	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}
	out.Content = strings.TrimSpace(text.String())

	return out
}

func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.ClassifyStatus(providerName, apiErr.Code, apiErr.Message, err)
	}
	return &llm.ProviderError{Provider: providerName, Err: err}
}
