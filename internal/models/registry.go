package models

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// ProviderInfo describes one supported LLM provider: the environment
// variables checked for credentials and the model used when none is named.
type ProviderInfo struct {
	// Env lists the environment variable names checked for an API key
	Env []string
	// DefaultModel is used when the model string names only the provider
	DefaultModel string
	// RequiresKey reports whether the provider is unusable without a key
	RequiresKey bool
}

// Registry provides validation and information about providers. It is the
// single source of truth for which providers exist, what credentials they
// need, and which model they default to.
type Registry struct {
	providers map[string]ProviderInfo
}

// NewRegistry creates a registry populated with the supported providers.
func NewRegistry() *Registry {
	return &Registry{
		providers: map[string]ProviderInfo{
			"anthropic": {
				Env:          []string{"ANTHROPIC_API_KEY"},
				DefaultModel: "claude-sonnet-4-20250514",
				RequiresKey:  true,
			},
			"openai": {
				Env:          []string{"OPENAI_API_KEY"},
				DefaultModel: "gpt-4o",
				RequiresKey:  true,
			},
			"google": {
				// Google calls this GEMINI_API_KEY in e.g. AI Studio. Support both.
				Env:          []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"},
				DefaultModel: "gemini-2.0-flash",
				RequiresKey:  true,
			},
			"ollama": {
				Env:          nil, // local server, no credentials
				DefaultModel: "qwen2.5:3b",
				RequiresKey:  false,
			},
		},
	}
}

// Info returns the catalog entry for a provider.
func (r *Registry) Info(provider string) (ProviderInfo, error) {
	info, exists := r.providers[provider]
	if !exists {
		return ProviderInfo{}, fmt.Errorf("unsupported provider: %s", provider)
	}
	return info, nil
}

// ResolveAPIKey returns the API key for a provider: an explicitly supplied
// key wins, otherwise the provider's environment variables are checked in
// order. Providers that require a key fail with a descriptive error naming
// the variables that were checked.
func (r *Registry) ResolveAPIKey(provider, explicit string) (string, error) {
	info, err := r.Info(provider)
	if err != nil {
		return "", err
	}
	if explicit != "" {
		return explicit, nil
	}
	for _, envVar := range info.Env {
		if value := os.Getenv(envVar); value != "" {
			return value, nil
		}
	}
	if info.RequiresKey {
		return "", fmt.Errorf("missing API key for %s: set one of %s or pass it explicitly",
			provider, strings.Join(info.Env, ", "))
	}
	return "", nil
}

// ValidateEnvironment checks that credentials for a provider are available,
// without returning them.
func (r *Registry) ValidateEnvironment(provider, explicit string) error {
	_, err := r.ResolveAPIKey(provider, explicit)
	return err
}

// SupportedProviders returns all provider names, sorted.
func (r *Registry) SupportedProviders() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SuggestProviders returns provider names resembling an invalid input,
// useful for correcting typos in model strings.
func (r *Registry) SuggestProviders(invalid string) []string {
	invalidLower := strings.ToLower(invalid)
	var suggestions []string
	for _, name := range r.SupportedProviders() {
		if strings.Contains(name, invalidLower) || strings.Contains(invalidLower, name) ||
			sharesPrefix(name, invalidLower, 3) {
			suggestions = append(suggestions, name)
		}
	}
	return suggestions
}

func sharesPrefix(a, b string, n int) bool {
	if len(a) < n || len(b) < n {
		return false
	}
	return a[:n] == b[:n]
}
