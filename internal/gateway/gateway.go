// Package gateway is the LLM scoring gateway: an ordered chain of model
// providers with first-success-wins fallback. All scoring call sites go
// through here; providers are injected at construction, never read from
// ambient state.
package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/verisource/procure-cli/internal/resilience"
)

// Gateway analyzes reference text under an instruction prompt and returns
// the raw model output.
type Gateway interface {
	Analyze(ctx context.Context, prompt, text string) (string, error)
}

// Provider is a single model backend in the fallback chain.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, prompt, text string) (string, error)
}

// Chain tries each provider in order and returns the first success.
// Exhaustion of all providers returns an error unless the chain ends in the
// simulated provider, which never fails.
type Chain struct {
	providers   []Provider
	limiter     *rate.Limiter
	callTimeout time.Duration

	retry    *resilience.RetryConfig
	breakers map[string]*resilience.Breaker
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithCallTimeout bounds each provider call. Zero disables the bound.
func WithCallTimeout(d time.Duration) ChainOption {
	return func(c *Chain) {
		c.callTimeout = d
	}
}

// WithRateLimit throttles provider calls to n per minute. Zero disables it.
func WithRateLimit(perMinute int) ChainOption {
	return func(c *Chain) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
		}
	}
}

// WithRetry retries each provider's transient failures before falling
// through to the next provider.
func WithRetry(cfg resilience.RetryConfig) ChainOption {
	return func(c *Chain) {
		c.retry = &cfg
	}
}

// WithBreaker gives each provider a circuit breaker; a provider whose
// breaker is open is skipped until its reset timeout elapses.
func WithBreaker(cfg resilience.BreakerConfig) ChainOption {
	return func(c *Chain) {
		c.breakers = make(map[string]*resilience.Breaker, len(c.providers))
		for _, p := range c.providers {
			c.breakers[p.Name()] = resilience.NewBreaker(cfg)
		}
	}
}

// NewChain creates a provider chain. Order is the fallback order.
func NewChain(providers []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		providers:   providers,
		callTimeout: 30 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Analyze runs the prompt through the chain, returning the first provider's
// successful output.
func (c *Chain) Analyze(ctx context.Context, prompt, text string) (string, error) {
	if len(c.providers) == 0 {
		return "", eris.New("gateway: no providers configured")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "gateway: rate limit wait")
		}
	}

	var lastErr error
	for i, p := range c.providers {
		breaker := c.breakers[p.Name()]
		if breaker != nil {
			if err := breaker.Allow(); err != nil {
				lastErr = err
				zap.L().Warn("gateway: provider circuit open, skipping",
					zap.String("provider", p.Name()),
				)
				continue
			}
		}

		callCtx := ctx
		cancel := func() {}
		if c.callTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		}

		out, err := c.callProvider(callCtx, p, prompt, text)
		cancel()
		if breaker != nil {
			breaker.Record(err)
		}
		if err == nil {
			if i > 0 {
				zap.L().Warn("gateway: fell back to secondary provider",
					zap.String("provider", p.Name()),
					zap.Int("attempts", i+1),
				)
			}
			return out, nil
		}

		lastErr = err
		zap.L().Warn("gateway: provider failed",
			zap.String("provider", p.Name()),
			zap.Error(err),
		)

		// Give up entirely once the caller's context is done.
		if ctx.Err() != nil {
			return "", eris.Wrap(ctx.Err(), "gateway: context done")
		}
	}

	return "", eris.Wrap(lastErr, "gateway: all providers failed")
}

// callProvider invokes one provider, retrying transient failures when the
// chain was built with WithRetry.
func (c *Chain) callProvider(ctx context.Context, p Provider, prompt, text string) (string, error) {
	if c.retry == nil {
		return p.Analyze(ctx, prompt, text)
	}

	cfg := *c.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(p.Name())
	}
	return resilience.Retry(ctx, cfg, func(ctx context.Context) (string, error) {
		return p.Analyze(ctx, prompt, text)
	})
}

// AnalyzeJSON runs Analyze and unmarshals the output into out, repairing
// malformed model JSON (markdown fences, trailing commas, single quotes)
// before giving up.
func AnalyzeJSON(ctx context.Context, gw Gateway, prompt, text string, out any) error {
	raw, err := gw.Analyze(ctx, prompt, text)
	if err != nil {
		return err
	}

	cleaned := stripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(cleaned)
	if repairErr != nil {
		return eris.Wrap(repairErr, "gateway: repair response JSON")
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return eris.Wrap(err, "gateway: unmarshal repaired JSON")
	}
	return nil
}

// stripFences removes a surrounding markdown code fence from model output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
