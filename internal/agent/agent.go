package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ramizpolic/agenthost/internal/session"
	"github.com/ramizpolic/agenthost/internal/tools"
	"github.com/ramizpolic/agenthost/pkg/llm"
)

// DefaultMaxSteps bounds the conversation loop when no limit is configured.
const DefaultMaxSteps = 10

// Rate limit backoff. Retries happen inside a step so the persisted
// session never sees a duplicated message.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	maxRetries     = 5
)

// Config holds the collaborators and limits for one Agent. The registry is
// injected explicitly; the agent never reaches for shared globals.
type Config struct {
	// Provider is the LLM backend the conversation runs against
	Provider llm.Provider
	// Registry catalogs the tools offered to the model
	Registry *tools.Registry
	// Store persists the session after every appended message
	Store *session.Store
	// MaxSteps caps loop iterations per user message (0 uses DefaultMaxSteps)
	MaxSteps int
	// MessageWindow bounds how much history is sent per request (0 = all)
	MessageWindow int
	// Model optionally overrides the provider's default model
	Model string
	// MaxTokens caps the response length per completion
	MaxTokens int
	// Temperature optionally overrides the provider default
	Temperature *float64
}

// Agent drives the conversation loop for one session at a time: it sends
// history plus tool schemas to the provider, executes requested tool calls
// strictly in request order, feeds results back, and repeats until the
// model answers without tool calls or the step limit is reached. One agent
// serves one session per call; independent sessions run on independent
// agent instances without shared mutable state.
type Agent struct {
	provider llm.Provider
	registry *tools.Registry
	executor *tools.Executor
	store    *session.Store

	maxSteps      int
	messageWindow int
	model         string
	maxTokens     int
	temperature   *float64
}

// New creates an agent from the given configuration.
func New(cfg Config) (*Agent, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("agent requires a provider")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("agent requires a tool registry")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("agent requires a session store")
	}
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Agent{
		provider:      cfg.Provider,
		registry:      cfg.Registry,
		executor:      tools.NewExecutor(cfg.Registry),
		store:         cfg.Store,
		maxSteps:      maxSteps,
		messageWindow: cfg.MessageWindow,
		model:         cfg.Model,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
	}, nil
}

// Result is the outcome of processing one user message.
type Result struct {
	// FinalContent is the model's final answer, or the best partial text
	// accumulated when the step limit was reached
	FinalContent string
	// Steps is the number of completions requested
	Steps int
	// LoopLimitReached reports that the model never stopped requesting
	// tools within the step budget; this is a reported, non-fatal condition
	LoopLimitReached bool
	// Usage aggregates token counts across all completions of this turn
	Usage llm.Usage
}

// ProcessMessage appends the user's message to the session and runs the
// conversation loop until the model produces a final answer or the step
// limit is hit. The session is persisted after every appended message, so a
// crash mid-loop leaves a resumable, consistent session. Tool failures are
// ordinary data fed back to the model and never abort the loop; provider
// and storage failures do.
func (a *Agent) ProcessMessage(ctx context.Context, sess *session.Session, userText string) (*Result, error) {
	if err := a.append(sess, llm.NewUserMessage(userText)); err != nil {
		return nil, err
	}

	result := &Result{}
	var partial string

	// Tools are only offered when the provider can call them; sending
	// schemas to a model without tool support fails the request outright.
	var schemas []llm.Tool
	if a.provider.SupportsTools() {
		schemas = a.registry.Schemas()
	}

	for step := 0; step < a.maxSteps; step++ {
		// Cooperative cancellation, checked once per iteration.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := a.completeWithRetry(ctx, &llm.CompletionRequest{
			Model:        a.model,
			SystemPrompt: sess.SystemPrompt,
			Messages:     sess.MessagesForModel(a.messageWindow),
			Tools:        schemas,
			MaxTokens:    a.maxTokens,
			Temperature:  a.temperature,
		})
		if err != nil {
			return nil, err
		}
		result.Steps++
		result.Usage.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			// Final answer: record it, persist, done.
			if err := a.append(sess, llm.NewAssistantMessage(resp.Content, nil)); err != nil {
				return nil, err
			}
			result.FinalContent = resp.Content
			return result, nil
		}

		// The model wants tools. Any accompanying text is advisory only,
		// but it is the best partial answer we have.
		if resp.Content != "" {
			partial = resp.Content
		}
		if err := a.append(sess, llm.NewAssistantMessage(resp.Content, resp.ToolCalls)); err != nil {
			return nil, err
		}

		// Execute strictly in request order: later calls may be predicated
		// on the model's expectation of earlier results.
		for _, call := range resp.ToolCalls {
			execution := a.executor.Execute(ctx, call.Name, call.Arguments)
			log.Debug("tool executed",
				"tool", call.Name,
				"success", execution.Success)

			if err := a.append(sess, llm.NewToolMessage(call, execution.Success, execution.Content())); err != nil {
				return nil, err
			}
		}
	}

	log.Warn("step limit reached before a final answer",
		"max_steps", a.maxSteps,
		"session", sess.SessionID)

	result.LoopLimitReached = true
	result.FinalContent = partial
	if result.FinalContent == "" {
		result.FinalContent = fmt.Sprintf("Reached the maximum of %d steps without a final answer.", a.maxSteps)
	}
	if err := a.append(sess, llm.NewAssistantMessage(result.FinalContent, nil)); err != nil {
		return nil, err
	}
	return result, nil
}

// completeWithRetry requests one completion, backing off and retrying when
// the provider reports a rate limit. Every other error surfaces unchanged.
func (a *Agent) completeWithRetry(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	backoff := initialBackoff
	for attempt := 0; ; attempt++ {
		resp, err := a.provider.CreateCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}

		var rateLimited *llm.RateLimitError
		if !errors.As(err, &rateLimited) || attempt >= maxRetries {
			return nil, err
		}

		wait := backoff
		if rateLimited.RetryAfter > 0 {
			wait = rateLimited.RetryAfter
		}
		log.Warn("Provider is rate limiting, backing off...",
			"attempt", attempt+1,
			"backoff", wait.String())

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// ClearHistory truncates the session back to just the system prompt and
// persists the truncation. Session identity and context survive.
func (a *Agent) ClearHistory(sess *session.Session) error {
	sess.Clear()
	return a.store.Update(sess)
}

// Provider exposes the configured provider, mainly for presentation layers
// that report which backend a session talks to.
func (a *Agent) Provider() llm.Provider {
	return a.provider
}

// append adds one neutral message to the session and persists immediately.
func (a *Agent) append(sess *session.Session, msg llm.Message) error {
	sess.AddMessage(session.FromLLM(msg))
	return a.store.Update(sess)
}
