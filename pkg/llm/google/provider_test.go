package google

import (
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/ramizpolic/agenthost/pkg/llm"
)

func TestConvertMessages(t *testing.T) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "what's the weather?"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
			{ID: "fc_1", Name: "get_weather", Arguments: map[string]any{"location": "Oslo"}},
		}},
		{Role: llm.RoleTool, ToolResults: []llm.ToolResult{
			{ToolCallID: "fc_1", ToolName: "get_weather", Success: false, Content: "lookup failed"},
		}},
	}

	contents := convertMessages(messages)

	// System message is never a content entry.
	if len(contents) != 3 {
		t.Fatalf("contents len = %d, want 3", len(contents))
	}

	if contents[0].Role != genai.RoleUser || contents[0].Parts[0].Text != "what's the weather?" {
		t.Errorf("user content = %+v", contents[0])
	}

	model := contents[1]
	if model.Role != genai.RoleModel {
		t.Errorf("assistant role = %q, want model", model.Role)
	}
	call := model.Parts[0].FunctionCall
	if call == nil || call.Name != "get_weather" || call.Args["location"] != "Oslo" {
		t.Errorf("function call = %+v", call)
	}

	// Tool results become FunctionResponse parts in a user turn, with the
	// failure routed through the error key.
	result := contents[2]
	if result.Role != genai.RoleUser {
		t.Errorf("tool result role = %q, want user", result.Role)
	}
	fr := result.Parts[0].FunctionResponse
	if fr == nil || fr.Name != "get_weather" {
		t.Fatalf("function response = %+v", fr)
	}
	if fr.Response["error"] != "lookup failed" {
		t.Errorf("failure response = %v, want error key", fr.Response)
	}
	if _, ok := fr.Response["output"]; ok {
		t.Error("failed result must not carry the output key")
	}
}

func TestConvertTools(t *testing.T) {
	tools := []llm.Tool{
		{Name: "get_weather", InputSchema: llm.Schema{
			Type: "object",
			Properties: map[string]any{
				"location": map[string]any{"type": "string", "description": "city name"},
				"units":    map[string]any{"type": "string", "enum": []string{"celsius", "fahrenheit"}},
				"days":     map[string]any{"type": "integer", "minimum": 1.0, "maximum": 14.0},
			},
			Required: []string{"location"},
		}},
		{Name: "current_time", InputSchema: llm.Schema{Type: "object"}},
	}

	converted := convertTools(tools)

	// All declarations share one container.
	if len(converted) != 1 {
		t.Fatalf("containers = %d, want 1", len(converted))
	}
	decls := converted[0].FunctionDeclarations
	if len(decls) != 2 {
		t.Fatalf("declarations = %d, want 2", len(decls))
	}

	weather := decls[0].Parameters
	if weather.Type != genai.TypeObject || weather.Required[0] != "location" {
		t.Errorf("weather schema = %+v", weather)
	}
	if weather.Properties["location"].Description != "city name" {
		t.Errorf("location = %+v", weather.Properties["location"])
	}
	units := weather.Properties["units"]
	if len(units.Enum) != 2 || units.Enum[0] != "celsius" {
		t.Errorf("units enum = %v", units.Enum)
	}
	days := weather.Properties["days"]
	if days.Minimum == nil || *days.Minimum != 1 || days.Maximum == nil || *days.Maximum != 14 {
		t.Errorf("days bounds = %+v", days)
	}

	// A no-argument tool gets the nullable placeholder Gemini demands.
	clock := decls[1].Parameters
	if clock.Nullable == nil || !*clock.Nullable {
		t.Error("empty schema must be nullable")
	}
	if _, ok := clock.Properties["unused"]; !ok {
		t.Errorf("placeholder property missing: %+v", clock.Properties)
	}
}

func TestParseResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{
					{Text: "checking "},
					{FunctionCall: &genai.FunctionCall{ID: "fc_1", Name: "get_weather"}},
				},
			},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     30,
			CandidatesTokenCount: 6,
		},
	}

	out := parseResponse(resp)
	if out.Content != "checking" {
		t.Errorf("Content = %q", out.Content)
	}
	if len(out.ToolCalls) != 1 || out.ToolCalls[0].Name != "get_weather" {
		t.Errorf("ToolCalls = %+v", out.ToolCalls)
	}
	// Missing args arrive as an empty map, never nil.
	if out.ToolCalls[0].Arguments == nil {
		t.Error("Arguments = nil, want empty map")
	}
	if out.Usage.InputTokens != 30 || out.Usage.OutputTokens != 6 {
		t.Errorf("Usage = %+v", out.Usage)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		check func(err error) bool
	}{
		{
			name: "permission denied",
			code: 403,
			check: func(err error) bool {
				var creds *llm.CredentialsError
				return errors.As(err, &creds)
			},
		},
		{
			name: "resource exhausted",
			code: 429,
			check: func(err error) bool {
				var limited *llm.RateLimitError
				return errors.As(err, &limited)
			},
		},
		{
			name: "invalid argument",
			code: 400,
			check: func(err error) bool {
				var reqErr *llm.RequestError
				return errors.As(err, &reqErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError(genai.APIError{Code: tt.code, Message: "nope"})
			if !tt.check(err) {
				t.Errorf("classifyError(%d) = %v", tt.code, err)
			}
		})
	}
}
