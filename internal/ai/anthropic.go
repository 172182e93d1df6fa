package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicProviderName = "anthropic"

// AnthropicProvider generates analysis through the Anthropic messages API.
type AnthropicProvider struct {
	client     anthropic.Client
	model      anthropic.Model
	configured bool
}

var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider builds the adapter; an empty API key yields a
// permanently unavailable provider.
func NewAnthropicProvider(apiKey string, model anthropic.Model) *AnthropicProvider {
	if model == "" {
		model = anthropic.ModelClaude3_5HaikuLatest
	}
	p := &AnthropicProvider{model: model, configured: apiKey != ""}
	if p.configured {
		p.client = anthropic.NewClient(option.WithAPIKey(apiKey))
	}
	return p
}

func (p *AnthropicProvider) Name() string { return anthropicProviderName }

func (p *AnthropicProvider) Available() bool { return p.configured }

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	if !p.configured {
		return nil, Unavailable(p.Name(), fmt.Errorf("no API key configured"))
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: analysisSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(req))),
		},
	})
	if err != nil {
		return nil, p.classify(err)
	}

	if len(resp.Content) == 0 {
		return nil, Malformed(p.Name(), fmt.Errorf("no content in response"))
	}

	result, err := parseAnalysis(resp.Content[0].Text)
	if err != nil {
		return nil, Malformed(p.Name(), err)
	}
	if result.SourcesCount == 0 {
		result.SourcesCount = countSources(req)
	}
	return result, nil
}

func (p *AnthropicProvider) classify(err error) *ProviderError {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden:
			return Unavailable(p.Name(), err)
		default:
			return Transient(p.Name(), err)
		}
	}
	return Transient(p.Name(), err)
}
