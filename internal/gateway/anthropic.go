package gateway

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/verisource/procure-cli/internal/config"
	"github.com/verisource/procure-cli/pkg/anthropic"
)

// AnthropicProvider backs the gateway with the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates the primary gateway provider.
func NewAnthropicProvider(client anthropic.Client, cfg config.AnthropicConfig) *AnthropicProvider {
	return &AnthropicProvider{
		client: client,
		model:  cfg.Model,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Analyze(ctx context.Context, prompt, text string) (string, error) {
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.model,
		MaxTokens: 2048,
		System:    prompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "gateway: anthropic analyze")
	}
	resp.Usage.LogTokens(p.model, "analyze")

	out := resp.Text()
	if out == "" {
		return "", eris.New("gateway: anthropic returned empty response")
	}
	return out, nil
}
