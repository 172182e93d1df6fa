package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Options tunes the multi-provider client.
type Options struct {
	// Timeout bounds each provider call; exceeding it fails over to the
	// next provider. Zero disables the per-call bound.
	Timeout time.Duration
	// Cooldown keeps a provider off the rotation for a window after a
	// transient failure, so a known-dead provider is not retried on every
	// call. Zero disables it. Correctness never depends on the cooldown.
	Cooldown time.Duration
}

// Client walks an ordered provider list to produce a best-effort analysis.
// The priority order is fixed at construction; a different order means a
// different client instance.
type Client struct {
	providers []Provider
	timeout   time.Duration
	cooldown  time.Duration

	mu        sync.Mutex
	downUntil map[string]time.Time

	now func() time.Time
}

// NewClient builds a client over providers in priority order.
func NewClient(providers []Provider, opts Options) *Client {
	return &Client{
		providers: providers,
		timeout:   opts.Timeout,
		cooldown:  opts.Cooldown,
		downUntil: make(map[string]time.Time),
		now:       time.Now,
	}
}

// GenerateAnalysis returns the first successful provider result, or the
// deterministic fallback when every provider is unavailable or failed. It
// errors only on contract violations (empty or incomplete batch) and on
// fatal adapter errors.
func (c *Client) GenerateAnalysis(ctx context.Context, req Request) (*Result, error) {
	if len(req.Articles) == 0 {
		return nil, ErrEmptyBatch
	}
	for i, a := range req.Articles {
		if a.Title == "" || a.Content == "" {
			return nil, fmt.Errorf("article %d: %w", i, ErrIncompleteArticle)
		}
	}

	for _, p := range c.providers {
		if c.coolingDown(p.Name()) {
			log.Debug().Str("provider", p.Name()).Msg("Provider cooling down, skipped")
			continue
		}
		if !p.Available() {
			continue
		}

		result, err := c.generateOnce(ctx, p, req)
		if err == nil {
			c.finalize(result, p.Name(), false)
			log.Info().
				Str("provider", p.Name()).
				Str("analysis_id", result.ID).
				Int("articles", len(req.Articles)).
				Msg("Analysis generated")
			return result, nil
		}

		switch Classify(err) {
		case KindFatal:
			return nil, err
		case KindUnavailable:
			log.Debug().Str("provider", p.Name()).Msg("Provider unavailable, skipped")
		default:
			log.Warn().
				Err(err).
				Str("provider", p.Name()).
				Msg("Provider failed, trying next")
			c.markDown(p.Name())
		}
	}

	result := buildFallback(req)
	c.finalize(result, fallbackProviderName, true)
	log.Info().
		Str("analysis_id", result.ID).
		Int("articles", len(req.Articles)).
		Msg("All providers failed, returning fallback analysis")
	return result, nil
}

func (c *Client) generateOnce(ctx context.Context, p Provider, req Request) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return p.Generate(ctx, req)
}

func (c *Client) finalize(result *Result, provider string, fallback bool) {
	result.ID = uuid.NewString()
	result.Provider = provider
	result.IsFallback = fallback
	result.GeneratedAt = c.now()
}

func (c *Client) coolingDown(provider string) bool {
	if c.cooldown == 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Before(c.downUntil[provider])
}

func (c *Client) markDown(provider string) {
	if c.cooldown == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.downUntil[provider] = c.now().Add(c.cooldown)
}
