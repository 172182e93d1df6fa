package store

import (
	"time"
)

// RiskLevel is the coarse severity tier assigned to an enriched article.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Valid reports whether r is one of the known tiers.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Category is the closed classification set for article enrichment.
type Category string

const (
	CategoryMilitary     Category = "military"
	CategoryPolitical    Category = "political"
	CategoryEconomic     Category = "economic"
	CategoryHumanitarian Category = "humanitarian"
	CategoryUnknown      Category = "unknown"
)

// Article represents a single ingested news item. Rows are created by the
// ingestion collaborator; this system only reads them and updates the
// enrichment fields (RiskLevel, EnrichedAt, Processing).
type Article struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     *string    `json:"content"`
	Source      string     `json:"source"`
	Language    string     `json:"language"`
	PublishedAt time.Time  `json:"published_at"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Country     *string    `json:"country,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	RiskLevel   *RiskLevel `json:"risk_level"`
	EnrichedAt  *time.Time `json:"enriched_at"`
}

// EntitySet groups named entities by type. Slices keep first-appearance order.
type EntitySet struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
}

// EnrichmentResult is the structured intelligence derived from one article.
// At most one live row exists per article; reprocessing deletes and recreates.
type EnrichmentResult struct {
	ArticleID string    `json:"article_id"`
	Category  Category  `json:"category"`
	Sentiment float64   `json:"sentiment"`
	Entities  EntitySet `json:"entities"`
	Keywords  []string  `json:"keywords"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// EnrichedArticle joins an article with its enrichment row.
type EnrichedArticle struct {
	Article
	Enrichment EnrichmentResult `json:"enrichment"`
}

// EnrichedFilter narrows ReadEnriched results. Nil fields are ignored.
type EnrichedFilter struct {
	RiskLevel *RiskLevel
	Category  *Category
	Source    *string
	Since     *time.Time
	Limit     int32
}
