package llm

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether the role is one of the four neutral roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Message is a vendor-neutral conversation message. Assistant messages may
// carry ToolCalls with empty Content; tool messages must carry ToolResults.
// Adapters map the Role vocabulary onto whatever their vendor expects
// (Anthropic encodes tool results as user-role tool_result blocks, OpenAI
// and Ollama use a dedicated "tool" role, Google uses FunctionResponse parts).
type Message struct {
	Role        Role
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolCall is an assistant-issued request to invoke a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult echoes the outcome of one tool invocation back to the model.
// Content carries the payload (or the failure description) as text; Success
// distinguishes the two so adapters that have an error channel can use it.
type ToolResult struct {
	ToolCallID string
	ToolName   string
	Success    bool
	Content    string
}

// NewUserMessage builds a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage builds an assistant message, optionally carrying the
// tool calls the model requested alongside (or instead of) text.
func NewAssistantMessage(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// NewToolMessage builds the tool-role message that feeds one execution result
// back into the conversation. The result's content doubles as the message
// text so vendors without a structured result channel still see it.
func NewToolMessage(call ToolCall, success bool, content string) Message {
	return Message{
		Role:    RoleTool,
		Content: content,
		ToolResults: []ToolResult{{
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Success:    success,
			Content:    content,
		}},
	}
}
