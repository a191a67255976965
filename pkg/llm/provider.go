package llm

import "context"

// Provider defines the interface that all LLM providers must implement.
// Each implementation translates the neutral conversation and tool schemas
// into its vendor's wire format, and translates the vendor's response back
// into a CompletionResponse. The orchestration loop is generic over this
// interface and never branches on vendor identity.
type Provider interface {
	// CreateCompletion sends the conversation and available tools to the
	// vendor endpoint and returns the parsed completion.
	CreateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// SupportsTools returns whether this provider supports tool/function calling
	SupportsTools() bool

	// Name returns the provider's name
	Name() string
}

// CompletionRequest is the vendor-neutral request handed to a Provider.
// SystemPrompt is carried separately from Messages because vendors disagree
// on whether the system prompt is a top-level field or a message role; each
// adapter places it where its endpoint expects it.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Tools        []Tool
	MaxTokens    int
	Temperature  *float64
}

// CompletionResponse is a single parsed model response, before any tool
// execution is performed on its behalf. When ToolCalls is non-empty the
// Content is advisory commentary only, never the user-visible final answer.
type CompletionResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}

// Usage reports token counts for one completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add accumulates usage across the completions of one conversation turn.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Tool represents a generic tool that can be offered to the LLM
type Tool struct {
	Name        string
	Description string
	InputSchema Schema
}

// Schema represents the input schema for a tool
type Schema struct {
	Type       string
	Properties map[string]any
	Required   []string
}
