package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Options selects and configures a backend.
type Options struct {
	Provider string // gemini, openai (Azure OpenAI), groq, fake
	Model    string // model id, or deployment name for Azure
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	RPS      float64
	Burst    int
}

// New builds the configured backend wrapped with logging, timeout and rate
// limiting, outermost first.
func New(ctx context.Context, opts Options) (Client, error) {
	var (
		base Client
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "gemini":
		base, err = NewGeminiClient(ctx, opts.APIKey, opts.Model)
	case "openai", "azure":
		base, err = NewAzureOpenAIClient(opts.Endpoint, opts.APIKey, opts.Model)
	case "groq":
		model := opts.Model
		if model == "" {
			model = "llama-3.3-70b-versatile"
		}
		c := NewGroqClient(opts.APIKey, model)
		if opts.Endpoint != "" {
			c.WithBaseURL(opts.Endpoint)
		}
		base = c
	case "fake":
		base = NewFakeClient()
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s client: %w", opts.Provider, err)
	}
	return Wrap(base,
		WithLogging(nil),
		Timeout(opts.Timeout),
		RateLimit(opts.RPS, opts.Burst),
	), nil
}
