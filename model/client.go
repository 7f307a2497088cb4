package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// ClientConfig configures a provider-backed streaming client.
type ClientConfig struct {
	// Provider selects the backend: openai, anthropic, or ollama.
	Provider string
	// Model is the provider's model identifier.
	Model string
	// APIKey is the provider API key. Unused for ollama.
	APIKey string
	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways,
	// local ollama servers). Empty uses the provider default.
	BaseURL string
}

// Client streams completions from a hosted model via langchaingo.
type Client struct {
	llm      llms.Model
	provider string
}

// NewClient creates a streaming client for the configured provider.
func NewClient(cfg ClientConfig) (*Client, error) {
	var (
		llm llms.Model
		err error
	)

	switch cfg.Provider {
	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithModel(cfg.Model),
			openai.WithToken(cfg.APIKey),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err = openai.New(opts...)

	case ProviderAnthropic:
		llm, err = anthropic.New(
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(cfg.Model),
		)

	case ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		llm, err = ollama.New(opts...)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}

	return &Client{llm: llm, provider: cfg.Provider}, nil
}

// Stream implements Streamer via langchaingo's streaming callback.
func (c *Client) Stream(ctx context.Context, prompt string, onChunk ChunkFunc) error {
	_, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			return onChunk(ctx, chunk)
		}),
	)
	if err != nil {
		return &TransportError{
			Provider:  c.provider,
			Retriable: isRetriableProviderError(err),
			Err:       err,
		}
	}
	return nil
}

// Name identifies the configured provider.
func (c *Client) Name() string {
	return c.provider
}

// isRetriableProviderError classifies provider errors by message pattern.
// Client-side request errors (4xx other than 429) are not retriable.
func isRetriableProviderError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"400", "401", "403", "404", "invalid_request", "context length"} {
		if strings.Contains(msg, marker) {
			return false
		}
	}
	return true
}

var _ Streamer = (*Client)(nil)
