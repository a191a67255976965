package sdk

import (
	"github.com/ramizpolic/agenthost/internal/agent"
	"github.com/ramizpolic/agenthost/internal/session"
	"github.com/ramizpolic/agenthost/internal/tools"
)

// Message aliases session.Message so SDK users can inspect conversation
// history without importing internal packages.
type Message = session.Message

// ToolCall aliases session.ToolCall, one requested tool invocation.
type ToolCall = session.ToolCall

// ToolResult aliases session.ToolResult, the recorded outcome of a call.
type ToolResult = session.ToolResult

// Result aliases agent.Result, the outcome of one prompt turn.
type Result = agent.Result

// ToolDefinition aliases tools.Definition for registering custom tools.
type ToolDefinition = tools.Definition

// ToolParameter aliases tools.Parameter, one declared tool parameter.
type ToolParameter = tools.Parameter

// ExecutionResult aliases tools.ExecutionResult, what a tool function
// returns: success with data, or failure with accumulated errors.
type ExecutionResult = tools.ExecutionResult
