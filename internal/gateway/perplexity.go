package gateway

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/verisource/procure-cli/internal/config"
	"github.com/verisource/procure-cli/pkg/perplexity"
)

// PerplexityProvider backs the gateway with the Perplexity chat API.
// Used as the fallback when the primary provider is unavailable.
type PerplexityProvider struct {
	client perplexity.Client
	model  string
}

// NewPerplexityProvider creates the fallback gateway provider.
func NewPerplexityProvider(client perplexity.Client, cfg config.PerplexityConfig) *PerplexityProvider {
	return &PerplexityProvider{
		client: client,
		model:  cfg.Model,
	}
}

func (p *PerplexityProvider) Name() string { return "perplexity" }

func (p *PerplexityProvider) Analyze(ctx context.Context, prompt, text string) (string, error) {
	resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: p.model,
		Messages: []perplexity.Message{
			{Role: "system", Content: prompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "gateway: perplexity analyze")
	}

	out := resp.Text()
	if out == "" {
		return "", eris.New("gateway: perplexity returned empty response")
	}
	return out, nil
}
