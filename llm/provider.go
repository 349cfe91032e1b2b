// Package llm wraps the AI completion providers behind one interface.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider is one text-completion backend. system may be empty.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// NewProvider builds a provider by kind: "anthropic", "openai" or "ollama".
// baseURL and model fall back to per-provider defaults when empty.
func NewProvider(kind, apiKey, baseURL, model string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an api key")
		}
		return NewAnthropicClient(apiKey, baseURL, model), nil
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return NewOpenAIClient(apiKey, baseURL, model), nil
	case "ollama", "":
		return NewOllamaClient(baseURL, model), nil
	}
	return nil, fmt.Errorf("unknown provider kind %q", kind)
}
