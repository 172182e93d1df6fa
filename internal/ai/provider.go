// Package ai produces narrative analysis from batches of articles by walking
// a priority-ordered list of interchangeable text-generation providers, with
// a deterministic template fallback when every provider fails.
package ai

import (
	"context"
	"fmt"
	"time"

	"intel-system/internal/store"
)

// AnalysisType selects the kind of narrative the providers are asked for.
type AnalysisType string

const (
	AnalysisBriefing  AnalysisType = "briefing"
	AnalysisSituation AnalysisType = "situation_report"
	AnalysisTrend     AnalysisType = "trend"
)

// ArticleInput is the provider-facing snapshot of one article.
type ArticleInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	RiskLevel string `json:"risk_level,omitempty"`
	Location  string `json:"location,omitempty"`
	Source    string `json:"source,omitempty"`
	Language  string `json:"language,omitempty"`
}

// Request bundles one or more articles for narrative synthesis.
type Request struct {
	Articles       []ArticleInput `json:"articles"`
	Type           AnalysisType   `json:"analysis_type"`
	TargetLanguage string         `json:"target_language,omitempty"`
}

// Result carries the generated analysis. Provider names the adapter that
// produced it; IsFallback marks the template result used when no provider
// succeeded.
type Result struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle"`
	Content      string    `json:"content"`
	SourcesCount int       `json:"sources_count"`
	Provider     string    `json:"provider"`
	IsFallback   bool      `json:"is_fallback"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Provider is one text-generation backend. Available reports whether the
// adapter is configured (credentials present); unavailable providers are
// skipped without counting as a failed attempt.
type Provider interface {
	Name() string
	Available() bool
	Generate(ctx context.Context, req Request) (*Result, error)
}

// InputFromArticle converts a stored article into a provider snapshot.
func InputFromArticle(a store.Article) ArticleInput {
	in := ArticleInput{
		Title:    a.Title,
		Source:   a.Source,
		Language: a.Language,
	}
	if a.Content != nil {
		in.Content = *a.Content
	}
	if a.RiskLevel != nil {
		in.RiskLevel = string(*a.RiskLevel)
	}
	switch {
	case a.Country != nil:
		in.Location = *a.Country
	case a.Latitude != nil && a.Longitude != nil:
		in.Location = fmt.Sprintf("%.4f,%.4f", *a.Latitude, *a.Longitude)
	}
	return in
}
