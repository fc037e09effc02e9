package provider

import (
	"context"
	"errors"

	"github.com/DGFellow/product-research-agent/config"
	local_provider "github.com/DGFellow/product-research-agent/provider/local"
)

// Client represents different LLM backends.
type Client string

const (
	Local     Client = "local"
	Anthropic Client = "anthropic"
	OpenAI    Client = "openai"
)

// Provider is the interface the planner consumes. Query returns the raw
// completion text; IsAvailable is a cheap health probe that never errors.
type Provider interface {
	Query(ctx context.Context, system, prompt string, temperature float64, maxTokens int) (string, error)
	IsAvailable(ctx context.Context) bool
}

// NewProvider creates an LLM client from configuration.
func NewProvider(client Client, cfg config.LLMConfig) (Provider, error) {
	switch client {
	case Local:
		return local_provider.NewClient(cfg.BaseURL, cfg.Timeout, cfg.HealthTimeout), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case OpenAI:
		return nil, errors.New("openai client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
