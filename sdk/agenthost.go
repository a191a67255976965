// Package sdk provides programmatic access to agenthost: the same
// provider adapters, tool registry and session handling the CLI uses,
// behind a small embeddable API.
package sdk

import (
	"context"
	"fmt"

	"github.com/ramizpolic/agenthost/internal/agent"
	"github.com/ramizpolic/agenthost/internal/builtin"
	"github.com/ramizpolic/agenthost/internal/config"
	"github.com/ramizpolic/agenthost/internal/models"
	"github.com/ramizpolic/agenthost/internal/session"
	"github.com/ramizpolic/agenthost/internal/tools"
)

// AgentHost wraps an agent, its tool registry and a persisted session for
// embedding in Go applications. Instances are not safe for concurrent use;
// create one per conversation.
type AgentHost struct {
	agent    *agent.Agent
	registry *tools.Registry
	store    *session.Store
	session  *session.Session
	model    string
}

// Options configures AgentHost creation. All fields are optional and fall
// back to the config file and its defaults when unset.
type Options struct {
	Model        string // provider:model, e.g. "anthropic:claude-sonnet-4-20250514"
	SystemPrompt string // inline text or path to a prompt file
	ConfigFile   string // explicit config file path
	SessionDir   string // session storage directory
	SessionID    string // resume an existing session instead of creating one
	MaxSteps     int    // agent step limit per prompt (0 = default)
	MaxTokens    int    // response token cap (0 = provider default)
	APIKey       string // provider API key, overriding the environment
	BaseURL      string // provider endpoint override
}

// New creates an AgentHost using the same initialization path as the CLI:
// config file, provider factory, built-in tools and a durable session.
func New(ctx context.Context, opts *Options) (*AgentHost, error) {
	if opts == nil {
		opts = &Options{}
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Model != "" {
		cfg.Model = opts.Model
	}
	if cfg.Model == "" {
		cfg.Model = "anthropic:claude-sonnet-4-20250514"
	}
	if opts.SystemPrompt != "" {
		cfg.SystemPrompt = opts.SystemPrompt
	}
	if opts.SessionDir != "" {
		cfg.SessionDir = opts.SessionDir
	}
	if opts.MaxSteps != 0 {
		cfg.MaxSteps = opts.MaxSteps
	}
	if opts.MaxTokens != 0 {
		cfg.MaxTokens = opts.MaxTokens
	}
	if opts.APIKey != "" {
		cfg.ProviderAPIKey = opts.APIKey
	}
	if opts.BaseURL != "" {
		cfg.ProviderURL = opts.BaseURL
	}

	systemPrompt, err := config.LoadSystemPrompt(cfg.SystemPrompt)
	if err != nil {
		return nil, err
	}

	provider, err := models.CreateProvider(ctx, &models.ProviderConfig{
		ModelString:   cfg.Model,
		APIKey:        cfg.ProviderAPIKey,
		BaseURL:       cfg.ProviderURL,
		TLSSkipVerify: cfg.TLSSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	registry := tools.NewRegistry()
	if err := builtin.RegisterAll(registry); err != nil {
		return nil, fmt.Errorf("failed to register built-in tools: %w", err)
	}

	store, err := session.NewStore(cfg.SessionDir)
	if err != nil {
		return nil, err
	}

	providerName, modelName := models.ParseModelString(cfg.Model)
	var sess *session.Session
	if opts.SessionID != "" {
		sess, err = store.Load(opts.SessionID)
	} else {
		sess, err = store.Create(providerName, systemPrompt, nil)
	}
	if err != nil {
		return nil, err
	}

	var temperature *float64
	if cfg.Temperature != 0 {
		temperature = &cfg.Temperature
	}

	a, err := agent.New(agent.Config{
		Provider:      provider,
		Registry:      registry,
		Store:         store,
		MaxSteps:      cfg.MaxSteps,
		MessageWindow: cfg.MessageWindow,
		Model:         modelName,
		MaxTokens:     cfg.MaxTokens,
		Temperature:   temperature,
	})
	if err != nil {
		return nil, err
	}

	return &AgentHost{
		agent:    a,
		registry: registry,
		store:    store,
		session:  sess,
		model:    cfg.Model,
	}, nil
}

// Prompt sends a message through the agent loop and returns the final
// answer. Tool calls, results and the answer itself are persisted to the
// session as they happen.
func (h *AgentHost) Prompt(ctx context.Context, message string) (string, error) {
	result, err := h.agent.ProcessMessage(ctx, h.session, message)
	if err != nil {
		return "", err
	}
	return result.FinalContent, nil
}

// PromptWithResult is Prompt, but returns the full turn outcome including
// step count, token usage and whether the step limit was hit.
func (h *AgentHost) PromptWithResult(ctx context.Context, message string) (*Result, error) {
	return h.agent.ProcessMessage(ctx, h.session, message)
}

// RegisterTool adds a custom tool to the registry alongside the built-ins.
// Registration fails if a tool with the same name already exists.
func (h *AgentHost) RegisterTool(def tools.Definition, fn tools.Func) error {
	return h.registry.Register(def, fn)
}

// SessionID returns the identifier of the current session, usable with
// Options.SessionID to resume later.
func (h *AgentHost) SessionID() string {
	return h.session.SessionID
}

// Messages returns the persisted conversation history.
func (h *AgentHost) Messages() []session.Message {
	return h.session.Messages
}

// ClearSession drops the conversation history, keeping the system prompt
// and session identity.
func (h *AgentHost) ClearSession() error {
	return h.agent.ClearHistory(h.session)
}

// DeleteSession removes the session from storage. The AgentHost must not
// be used afterwards.
func (h *AgentHost) DeleteSession() error {
	return h.store.Delete(h.session.SessionID)
}

// ModelString returns the provider:model identifier in use.
func (h *AgentHost) ModelString() string {
	return h.model
}
