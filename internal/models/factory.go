package models

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ramizpolic/agenthost/pkg/llm"
	"github.com/ramizpolic/agenthost/pkg/llm/anthropic"
	"github.com/ramizpolic/agenthost/pkg/llm/google"
	"github.com/ramizpolic/agenthost/pkg/llm/ollama"
	"github.com/ramizpolic/agenthost/pkg/llm/openai"
)

// DefaultTimeout bounds each provider request so a stalled endpoint
// surfaces as an error instead of hanging the conversation loop.
const DefaultTimeout = 2 * time.Minute

// ProviderConfig carries everything needed to construct a provider from a
// "provider:model" string plus optional overrides.
type ProviderConfig struct {
	// ModelString selects provider and model, e.g. "anthropic:claude-sonnet-4-20250514"
	// or "ollama:qwen2.5:3b". A bare provider name selects its default model.
	ModelString string
	// APIKey overrides the provider's environment variables
	APIKey string
	// BaseURL overrides the provider's default endpoint
	BaseURL string
	// Timeout bounds each request (0 uses DefaultTimeout)
	Timeout time.Duration
	// TLSSkipVerify disables certificate verification for self-hosted
	// OpenAI-compatible gateways
	TLSSkipVerify bool
}

// ParseModelString splits "provider:model" into its parts. The model part
// may itself contain colons (ollama tags do).
func ParseModelString(modelString string) (provider, model string) {
	parts := strings.SplitN(modelString, ":", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return modelString, ""
}

// CreateProvider builds the provider adapter named by the configuration.
// Credentials are resolved through the registry (explicit key first, then
// environment); an unknown provider fails with suggestions for close names.
func CreateProvider(ctx context.Context, cfg *ProviderConfig) (llm.Provider, error) {
	registry := NewRegistry()

	providerName, model := ParseModelString(cfg.ModelString)
	if providerName == "" {
		return nil, fmt.Errorf("empty model string; expected provider:model")
	}

	info, err := registry.Info(providerName)
	if err != nil {
		if suggestions := registry.SuggestProviders(providerName); len(suggestions) > 0 {
			return nil, fmt.Errorf("unsupported provider %q; did you mean %s?",
				providerName, strings.Join(suggestions, " or "))
		}
		return nil, fmt.Errorf("unsupported provider %q; supported: %s",
			providerName, strings.Join(registry.SupportedProviders(), ", "))
	}
	if model == "" {
		model = info.DefaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch providerName {
	case "anthropic":
		apiKey, err := registry.ResolveAPIKey(providerName, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return anthropic.NewProvider(apiKey, cfg.BaseURL, model, timeout), nil

	case "openai":
		apiKey, err := registry.ResolveAPIKey(providerName, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		httpClient := createHTTPClientWithTLSConfig(timeout, cfg.TLSSkipVerify)
		return openai.NewProviderWithClient(apiKey, cfg.BaseURL, model, httpClient), nil

	case "google":
		apiKey, err := registry.ResolveAPIKey(providerName, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return google.NewProvider(ctx, apiKey, model)

	case "ollama":
		return ollama.NewProvider(model)
	}

	return nil, fmt.Errorf("unsupported provider: %s", providerName)
}

// createHTTPClientWithTLSConfig builds an HTTP client, optionally skipping
// TLS verification for self-hosted gateways with self-signed certificates.
func createHTTPClientWithTLSConfig(timeout time.Duration, skipVerify bool) *http.Client {
	client := &http.Client{Timeout: timeout}
	if skipVerify {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return client
}
