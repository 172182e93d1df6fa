package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an article or enrichment row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence contract consumed by the enrichment pipeline and
// the read-only dashboard surface. Implementations must guarantee that
// WriteEnrichment and ResetEnrichment are atomic: an article's risk level is
// non-null if and only if an enrichment row exists for it, and no concurrent
// reader may observe a half-applied write.
type Store interface {
	// FetchUnenriched returns the work queue: articles with a null risk
	// level, no enrichment row, and no active claim, in stable ID order.
	FetchUnenriched(ctx context.Context, limit int32) ([]Article, error)

	// Claim atomically marks an article as being processed. It returns false
	// when the article was already claimed or enriched by a concurrent run.
	Claim(ctx context.Context, articleID string) (bool, error)

	// Release returns a claimed article to the work queue after a failure.
	Release(ctx context.Context, articleID string) error

	// WriteEnrichment persists the enrichment row, sets the article's risk
	// level and enrichment marker, and clears the claim, all in one
	// transaction.
	WriteEnrichment(ctx context.Context, articleID string, result EnrichmentResult, risk RiskLevel) error

	// ResetEnrichment deletes the enrichment row and nulls the article's
	// risk level and enrichment marker in one transaction, returning the
	// article to the work queue.
	ResetEnrichment(ctx context.Context, articleID string) error

	// ReadEnriched returns enriched articles joined with their results,
	// newest first. Consumed by the dashboard surface only.
	ReadEnriched(ctx context.Context, filter EnrichedFilter) ([]EnrichedArticle, error)

	// GetArticle fetches a single article by ID, returning ErrNotFound when
	// no row exists.
	GetArticle(ctx context.Context, articleID string) (Article, error)
}
