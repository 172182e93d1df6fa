package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const openaiProviderName = "openai"

// OpenAIProvider generates analysis through the OpenAI chat completions API.
type OpenAIProvider struct {
	client     openai.Client
	model      string
	configured bool
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds the adapter. An empty API key yields a provider
// that reports itself unavailable for the process lifetime rather than an
// error, so a partially configured deployment still degrades to the next
// provider in priority order.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}
	p := &OpenAIProvider{model: model, configured: apiKey != ""}
	if p.configured {
		p.client = openai.NewClient(option.WithAPIKey(apiKey))
	}
	return p
}

func (p *OpenAIProvider) Name() string { return openaiProviderName }

func (p *OpenAIProvider) Available() bool { return p.configured }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	if !p.configured {
		return nil, Unavailable(p.Name(), fmt.Errorf("no API key configured"))
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(analysisSystemPrompt),
			openai.UserMessage(buildUserPrompt(req)),
		},
	})
	if err != nil {
		return nil, p.classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, Malformed(p.Name(), fmt.Errorf("no choices in response"))
	}

	result, err := parseAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, Malformed(p.Name(), err)
	}
	if result.SourcesCount == 0 {
		result.SourcesCount = countSources(req)
	}
	return result, nil
}

func (p *OpenAIProvider) classify(err error) *ProviderError {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden:
			return Unavailable(p.Name(), err)
		default:
			// 429 and 5xx are the expected cases; anything else from the
			// API is still worth a failover attempt.
			return Transient(p.Name(), err)
		}
	}
	return Transient(p.Name(), err)
}

func countSources(req Request) int {
	sources := map[string]bool{}
	for _, a := range req.Articles {
		if a.Source != "" {
			sources[a.Source] = true
		}
	}
	return len(sources)
}
