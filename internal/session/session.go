package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/decoder"

	"github.com/ramizpolic/agenthost/pkg/llm"
)

// SchemaVersion is the session format version. Loading rejects documents
// with any other version instead of guessing at their layout.
const SchemaVersion = "1.0"

// Session represents a complete conversation session with metadata. It owns
// an append-only message log, a free-form context map, and timestamps.
// Sessions are persisted as one JSON document per session and survive
// process restarts with full fidelity.
type Session struct {
	// Version indicates the session format version for compatibility
	Version string `json:"version"`
	// SessionID uniquely identifies this session
	SessionID string `json:"session_id"`
	// Provider is the LLM provider this session converses with
	Provider string `json:"provider_name"`
	// SystemPrompt is the instruction pinned to the start of the conversation
	SystemPrompt string `json:"system_prompt,omitempty"`
	// Context carries free-form key/value state such as file paths
	Context map[string]string `json:"context,omitempty"`
	// CreatedAt is when the session was first created
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the session was last modified
	UpdatedAt time.Time `json:"updated_at"`
	// Messages is the ordered list of all messages in this session
	Messages []Message `json:"messages"`
}

// Message is one persisted conversation message. Role, content, tool calls
// and tool results all round-trip through the storage format losslessly.
type Message struct {
	// ID is a unique identifier for this message, auto-generated if absent
	ID string `json:"id"`
	// Role is who sent the message: system, user, assistant or tool
	Role string `json:"role"`
	// Content is the text content; empty for pure tool-call messages
	Content string `json:"content"`
	// Timestamp is when the message was created
	Timestamp time.Time `json:"timestamp"`
	// ToolCalls are the tool invocations requested in this assistant message
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolResults echo tool outcomes back in a tool-role message
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolCall records one requested tool invocation.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult records the outcome of one tool invocation.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Success    bool   `json:"success"`
	Content    string `json:"content"`
}

// New creates a session for the given provider. A non-empty system prompt
// is seeded as the first message so windowing and clearing can pin it.
func New(provider, systemPrompt string, context map[string]string) *Session {
	now := time.Now().UTC()
	if context == nil {
		context = map[string]string{}
	}
	s := &Session{
		Version:      SchemaVersion,
		SessionID:    generateSessionID(),
		Provider:     provider,
		SystemPrompt: systemPrompt,
		Context:      context,
		CreatedAt:    now,
		UpdatedAt:    now,
		Messages:     []Message{},
	}
	if systemPrompt != "" {
		s.AddMessage(Message{Role: string(llm.RoleSystem), Content: systemPrompt})
	}
	return s
}

// AddMessage appends a message to the log. A missing ID or timestamp is
// filled in, and UpdatedAt is bumped.
func (s *Session) AddMessage(msg Message) {
	if msg.ID == "" {
		msg.ID = generateMessageID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now().UTC()
}

// SetContext updates one context key. The message log is untouched.
func (s *Session) SetContext(key, value string) {
	if s.Context == nil {
		s.Context = map[string]string{}
	}
	s.Context[key] = value
	s.UpdatedAt = time.Now().UTC()
}

// Clear truncates the message log back to just the system prompt message,
// when one exists. Session identity and the context map survive.
func (s *Session) Clear() {
	if len(s.Messages) > 0 && s.Messages[0].Role == string(llm.RoleSystem) {
		s.Messages = s.Messages[:1]
	} else {
		s.Messages = []Message{}
	}
	s.UpdatedAt = time.Now().UTC()
}

// MessagesForModel returns the most recent max messages converted to the
// neutral format, always retaining the system prompt message as the first
// element regardless of max. Truncation is pair-aware: a tool call whose
// result fell outside the window is dropped, and so is a result whose call
// did, because providers reject half a pair.
func (s *Session) MessagesForModel(max int) []llm.Message {
	msgs := s.Messages

	var system *Message
	if len(msgs) > 0 && msgs[0].Role == string(llm.RoleSystem) {
		system = &msgs[0]
		msgs = msgs[1:]
	}

	if max > 0 {
		budget := max
		if system != nil {
			budget--
		}
		if budget < 0 {
			budget = 0
		}
		if len(msgs) > budget {
			msgs = pruneOrphanedPairs(msgs[len(msgs)-budget:])
		}
	}

	out := make([]llm.Message, 0, len(msgs)+1)
	if system != nil {
		out = append(out, system.ToLLM())
	}
	for _, msg := range msgs {
		out = append(out, msg.ToLLM())
	}
	return out
}

// pruneOrphanedPairs drops tool calls and tool results whose counterpart
// was cut away by the window boundary.
func pruneOrphanedPairs(msgs []Message) []Message {
	callIDs := make(map[string]bool)
	resultIDs := make(map[string]bool)
	for _, msg := range msgs {
		for _, call := range msg.ToolCalls {
			callIDs[call.ID] = true
		}
		for _, res := range msg.ToolResults {
			resultIDs[res.ToolCallID] = true
		}
	}

	var pruned []Message
	for _, msg := range msgs {
		if len(msg.ToolCalls) > 0 {
			var kept []ToolCall
			for _, call := range msg.ToolCalls {
				if resultIDs[call.ID] {
					kept = append(kept, call)
				}
			}
			msg.ToolCalls = kept
			if len(kept) == 0 && msg.Content == "" {
				continue
			}
		}
		if len(msg.ToolResults) > 0 {
			var kept []ToolResult
			for _, res := range msg.ToolResults {
				if callIDs[res.ToolCallID] {
					kept = append(kept, res)
				}
			}
			msg.ToolResults = kept
			if len(kept) == 0 {
				continue
			}
		}
		pruned = append(pruned, msg)
	}
	return pruned
}

// Marshal serializes the session as indented JSON.
func (s *Session) Marshal() ([]byte, error) {
	data, err := sonic.ConfigDefault.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return data, nil
}

// Unmarshal parses a persisted session with strict schema checking:
// unrecognized fields and unknown versions are rejected loudly instead of
// being dropped.
func Unmarshal(data []byte) (*Session, error) {
	var s Session
	dec := decoder.NewDecoder(string(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if s.Version != SchemaVersion {
		return nil, fmt.Errorf("unsupported session version %q (want %q)", s.Version, SchemaVersion)
	}
	if s.SessionID == "" {
		return nil, fmt.Errorf("session document has no session_id")
	}
	return &s, nil
}

// FromLLM converts a neutral message into the persisted form.
func FromLLM(msg llm.Message) Message {
	out := Message{
		Role:    string(msg.Role),
		Content: msg.Content,
	}
	for _, call := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: call.Arguments,
		})
	}
	for _, res := range msg.ToolResults {
		out.ToolResults = append(out.ToolResults, ToolResult{
			ToolCallID: res.ToolCallID,
			ToolName:   res.ToolName,
			Success:    res.Success,
			Content:    res.Content,
		})
	}
	return out
}

// ToLLM converts a persisted message back into the neutral form.
func (m Message) ToLLM() llm.Message {
	out := llm.Message{
		Role:    llm.Role(m.Role),
		Content: m.Content,
	}
	for _, call := range m.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: call.Arguments,
		})
	}
	for _, res := range m.ToolResults {
		out.ToolResults = append(out.ToolResults, llm.ToolResult{
			ToolCallID: res.ToolCallID,
			ToolName:   res.ToolName,
			Success:    res.Success,
			Content:    res.Content,
		})
	}
	return out
}

func generateSessionID() string {
	return "sess_" + randomHex(8)
}

func generateMessageID() string {
	return "msg_" + randomHex(8)
}

func randomHex(n int) string {
	bytes := make([]byte, n)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
