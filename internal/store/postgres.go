package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FetchUnenriched(ctx context.Context, limit int32) ([]Article, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.title, a.content, a.source, a.language, a.published_at,
		       a.latitude, a.longitude, a.country, a.image_url, a.risk_level, a.enriched_at
		FROM articles a
		LEFT JOIN enrichment_results r ON r.article_id = a.id
		WHERE a.risk_level IS NULL
		  AND r.article_id IS NULL
		  AND a.processing = FALSE
		ORDER BY a.id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unenriched: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		if err := scanArticle(rows, &a); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unenriched: %w", err)
	}
	return articles, nil
}

func (s *PostgresStore) Claim(ctx context.Context, articleID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE articles
		SET processing = TRUE
		WHERE id = $1 AND processing = FALSE AND risk_level IS NULL`,
		articleID)
	if err != nil {
		return false, fmt.Errorf("claim article %s: %w", articleID, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) Release(ctx context.Context, articleID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE articles SET processing = FALSE WHERE id = $1`, articleID)
	if err != nil {
		return fmt.Errorf("release article %s: %w", articleID, err)
	}
	return nil
}

func (s *PostgresStore) WriteEnrichment(ctx context.Context, articleID string, result EnrichmentResult, risk RiskLevel) error {
	entities, err := json.Marshal(result.Entities)
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	keywords, err := json.Marshal(result.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO enrichment_results
			(article_id, category, sentiment, entities, keywords, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		articleID, result.Category, result.Sentiment, entities, keywords,
		result.Summary, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert enrichment %s: %w", articleID, err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE articles
		SET risk_level = $2, enriched_at = NOW(), processing = FALSE
		WHERE id = $1`,
		articleID, risk)
	if err != nil {
		return fmt.Errorf("update risk level %s: %w", articleID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update risk level %s: %w", articleID, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit enrichment %s: %w", articleID, err)
	}
	return nil
}

func (s *PostgresStore) ResetEnrichment(ctx context.Context, articleID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM enrichment_results WHERE article_id = $1`, articleID); err != nil {
		return fmt.Errorf("delete enrichment %s: %w", articleID, err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE articles
		SET risk_level = NULL, enriched_at = NULL, processing = FALSE
		WHERE id = $1`,
		articleID)
	if err != nil {
		return fmt.Errorf("clear risk level %s: %w", articleID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("clear risk level %s: %w", articleID, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reset %s: %w", articleID, err)
	}
	return nil
}

func (s *PostgresStore) ReadEnriched(ctx context.Context, filter EnrichedFilter) ([]EnrichedArticle, error) {
	builder := sq.Select(
		"a.id", "a.title", "a.content", "a.source", "a.language", "a.published_at",
		"a.latitude", "a.longitude", "a.country", "a.image_url", "a.risk_level", "a.enriched_at",
		"r.category", "r.sentiment", "r.entities", "r.keywords", "r.summary", "r.created_at",
	).
		From("articles a").
		Join("enrichment_results r ON r.article_id = a.id").
		OrderBy("a.published_at DESC", "a.id").
		PlaceholderFormat(sq.Dollar)

	if filter.RiskLevel != nil {
		builder = builder.Where(sq.Eq{"a.risk_level": *filter.RiskLevel})
	}
	if filter.Category != nil {
		builder = builder.Where(sq.Eq{"r.category": *filter.Category})
	}
	if filter.Source != nil {
		builder = builder.Where(sq.Eq{"a.source": *filter.Source})
	}
	if filter.Since != nil {
		builder = builder.Where(sq.GtOrEq{"a.published_at": *filter.Since})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build enriched query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query enriched: %w", err)
	}
	defer rows.Close()

	var results []EnrichedArticle
	for rows.Next() {
		var ea EnrichedArticle
		var entities, keywords []byte
		err := rows.Scan(
			&ea.ID, &ea.Title, &ea.Content, &ea.Source, &ea.Language, &ea.PublishedAt,
			&ea.Latitude, &ea.Longitude, &ea.Country, &ea.ImageURL, &ea.RiskLevel, &ea.EnrichedAt,
			&ea.Enrichment.Category, &ea.Enrichment.Sentiment, &entities, &keywords,
			&ea.Enrichment.Summary, &ea.Enrichment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan enriched row: %w", err)
		}
		ea.Enrichment.ArticleID = ea.ID
		if err := json.Unmarshal(entities, &ea.Enrichment.Entities); err != nil {
			return nil, fmt.Errorf("decode entities %s: %w", ea.ID, err)
		}
		if err := json.Unmarshal(keywords, &ea.Enrichment.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords %s: %w", ea.ID, err)
		}
		results = append(results, ea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enriched: %w", err)
	}
	return results, nil
}

// GetArticle fetches a single article by ID.
func (s *PostgresStore) GetArticle(ctx context.Context, articleID string) (Article, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT a.id, a.title, a.content, a.source, a.language, a.published_at,
		       a.latitude, a.longitude, a.country, a.image_url, a.risk_level, a.enriched_at
		FROM articles a
		WHERE a.id = $1`, articleID)

	var a Article
	if err := scanArticle(row, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Article{}, ErrNotFound
		}
		return Article{}, err
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner, a *Article) error {
	err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.Source, &a.Language, &a.PublishedAt,
		&a.Latitude, &a.Longitude, &a.Country, &a.ImageURL, &a.RiskLevel, &a.EnrichedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return fmt.Errorf("scan article: %w", err)
	}
	return nil
}
