package gateway

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/verisource/procure-cli/internal/config"
	"github.com/verisource/procure-cli/internal/resilience"
	"github.com/verisource/procure-cli/pkg/anthropic"
	"github.com/verisource/procure-cli/pkg/perplexity"
)

// Build assembles the provider chain from configuration. Providers without
// credentials are skipped with a warning; an empty chain falls back to the
// simulated provider alone.
func Build(cfg *config.Config) (*Chain, error) {
	var providers []Provider

	for _, name := range cfg.Gateway.Providers {
		switch name {
		case "anthropic":
			if cfg.Anthropic.Key == "" {
				zap.L().Warn("gateway: anthropic provider skipped, no API key configured")
				continue
			}
			providers = append(providers, NewAnthropicProvider(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic))
		case "perplexity":
			if cfg.Perplexity.Key == "" {
				zap.L().Warn("gateway: perplexity provider skipped, no API key configured")
				continue
			}
			client := perplexity.NewClient(cfg.Perplexity.Key,
				perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
				perplexity.WithModel(cfg.Perplexity.Model),
			)
			providers = append(providers, NewPerplexityProvider(client, cfg.Perplexity))
		case "simulated":
			providers = append(providers, NewSimulatedProvider())
		default:
			return nil, eris.Errorf("gateway: unknown provider %q", name)
		}
	}

	if len(providers) == 0 {
		zap.L().Warn("gateway: no usable providers configured, using simulated only")
		providers = append(providers, NewSimulatedProvider())
	}

	return NewChain(providers,
		WithCallTimeout(time.Duration(cfg.Gateway.CallTimeoutSecs)*time.Second),
		WithRateLimit(cfg.Gateway.RatePerMinute),
		WithRetry(resilience.RetryConfig{
			MaxAttempts:    cfg.Gateway.RetryMaxAttempts,
			InitialBackoff: time.Duration(cfg.Gateway.RetryBackoffMs) * time.Millisecond,
		}),
		WithBreaker(resilience.BreakerConfig{
			FailureThreshold: cfg.Gateway.BreakerFailureThreshold,
			ResetTimeout:     time.Duration(cfg.Gateway.BreakerResetSecs) * time.Second,
		}),
	), nil
}
