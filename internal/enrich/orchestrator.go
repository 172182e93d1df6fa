// Package enrich drives articles from unenriched to enriched exactly once
// per generation. The orchestrator is a unit of work: it runs a batch to
// completion or stops cleanly between articles on cancellation, and a second
// run over the same store is a no-op.
package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"intel-system/internal/ai"
	"intel-system/internal/extract"
	"intel-system/internal/notify"
	"intel-system/internal/policy"
	"intel-system/internal/store"
)

const summaryMaxLen = 240

// Analyst produces narrative text for an article batch. Satisfied by
// *ai.Client; nil disables AI summaries in favor of a local template.
type Analyst interface {
	GenerateAnalysis(ctx context.Context, req ai.Request) (*ai.Result, error)
}

// Config tunes one orchestrator instance.
type Config struct {
	// BatchSize caps how many articles one ProcessBatch call selects.
	BatchSize int32
	// MinContentLength is the threshold below which extraction is skipped
	// and the article receives a neutral result.
	MinContentLength int
}

// Stats reports the outcome of one batch.
type Stats struct {
	Processed int
	Errors    int
}

// Orchestrator wires the extractor, risk policy, optional analyst, and
// optional notifier over the persistent store.
type Orchestrator struct {
	store     store.Store
	extractor extract.Extractor
	policy    policy.Table
	analyst   Analyst
	notifier  notify.Notifier
	cfg       Config
}

// NewOrchestrator constructs the pipeline. analyst and notifier may be nil.
func NewOrchestrator(s store.Store, ex extract.Extractor, table policy.Table, analyst Analyst, notifier notify.Notifier, cfg Config) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MinContentLength <= 0 {
		cfg.MinContentLength = 80
	}
	return &Orchestrator{
		store:     s,
		extractor: ex,
		policy:    table,
		analyst:   analyst,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// ProcessBatch selects the work queue and enriches each article. One
// article's failure never aborts the batch: the error is counted, the claim
// released, and the article stays in the queue for the next run.
func (o *Orchestrator) ProcessBatch(ctx context.Context) (Stats, error) {
	var stats Stats

	articles, err := o.store.FetchUnenriched(ctx, o.cfg.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("fetch work queue: %w", err)
	}
	if len(articles) == 0 {
		log.Debug().Msg("No unenriched articles")
		return stats, nil
	}

	log.Info().Int("count", len(articles)).Msg("Processing enrichment batch")

	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		claimed, err := o.store.Claim(ctx, article.ID)
		if err != nil {
			log.Error().Err(err).Str("article_id", article.ID).Msg("Claim failed")
			stats.Errors++
			continue
		}
		if !claimed {
			// A concurrent run got there first; not an error.
			log.Debug().Str("article_id", article.ID).Msg("Article claimed elsewhere, skipped")
			continue
		}

		if err := o.enrichOne(ctx, article); err != nil {
			log.Error().Err(err).Str("article_id", article.ID).Msg("Enrichment failed")
			stats.Errors++
			if relErr := o.store.Release(ctx, article.ID); relErr != nil {
				log.Error().Err(relErr).Str("article_id", article.ID).Msg("Release failed")
			}
			continue
		}
		stats.Processed++
	}

	log.Info().
		Int("processed", stats.Processed).
		Int("errors", stats.Errors).
		Msg("Enrichment batch finished")
	return stats, nil
}

// Reset clears an article's enrichment so the next batch recomputes it. The
// result row and the risk level go together in one transaction; a failed
// reset leaves both intact.
func (o *Orchestrator) Reset(ctx context.Context, articleID string) error {
	if err := o.store.ResetEnrichment(ctx, articleID); err != nil {
		return fmt.Errorf("reset enrichment: %w", err)
	}
	log.Info().Str("article_id", articleID).Msg("Enrichment reset")
	return nil
}

func (o *Orchestrator) enrichOne(ctx context.Context, article store.Article) error {
	text := ""
	if article.Content != nil {
		text = *article.Content
	}

	extracted := extract.Neutral()
	if len(text) >= o.cfg.MinContentLength {
		var err error
		extracted, err = o.extractor.Extract(text)
		if err != nil {
			// Extraction failure downgrades to neutral; the article still
			// reaches a terminal enriched state.
			log.Warn().Err(err).Str("article_id", article.ID).Msg("Extraction failed, using neutral result")
			extracted = extract.Neutral()
		}
	}

	risk := o.policy.Map(extracted.Category, extracted.Sentiment)

	result := store.EnrichmentResult{
		ArticleID: article.ID,
		Category:  extracted.Category,
		Sentiment: extracted.Sentiment,
		Entities:  extracted.Entities,
		Keywords:  extracted.Keywords,
		Summary:   o.summarize(ctx, article, text),
		CreatedAt: time.Now(),
	}

	if err := o.store.WriteEnrichment(ctx, article.ID, result, risk); err != nil {
		return fmt.Errorf("write enrichment: %w", err)
	}

	log.Info().
		Str("article_id", article.ID).
		Str("category", string(extracted.Category)).
		Float64("sentiment", extracted.Sentiment).
		Str("risk_level", string(risk)).
		Msg("Article enriched")

	if risk == store.RiskCritical {
		o.alert(ctx, article, result)
	}
	return nil
}

// summarize prefers the analyst when one is wired; GenerateAnalysis degrades
// through its own fallback chain, so any non-contract failure still yields
// text. Articles too short for analysis get a local excerpt.
func (o *Orchestrator) summarize(ctx context.Context, article store.Article, text string) string {
	if o.analyst != nil && article.Title != "" && text != "" {
		req := ai.Request{
			Articles:       []ai.ArticleInput{ai.InputFromArticle(article)},
			Type:           ai.AnalysisBriefing,
			TargetLanguage: article.Language,
		}
		if res, err := o.analyst.GenerateAnalysis(ctx, req); err == nil {
			return res.Content
		} else {
			log.Warn().Err(err).Str("article_id", article.ID).Msg("Analyst summary failed, using excerpt")
		}
	}
	return excerpt(text)
}

func (o *Orchestrator) alert(ctx context.Context, article store.Article, result store.EnrichmentResult) {
	if o.notifier == nil {
		return
	}
	body := fmt.Sprintf("Category: %s\nSentiment: %.2f\nSource: %s", result.Category, result.Sentiment, article.Source)
	if locs := result.Entities.Locations; len(locs) > 0 {
		body += "\nLocations: " + strings.Join(locs, ", ")
	}
	alert := notify.Alert{
		Title: "Critical risk: " + article.Title,
		Body:  body,
	}
	if err := o.notifier.Send(ctx, alert); err != nil {
		// Best effort only.
		log.Warn().Err(err).Str("article_id", article.ID).Msg("Alert delivery failed")
	}
}

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if i := strings.IndexAny(text, ".!?"); i > 0 && i < summaryMaxLen {
		return text[:i+1]
	}
	if len(text) > summaryMaxLen {
		cut := summaryMaxLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		return text[:cut] + "…"
	}
	return text
}
