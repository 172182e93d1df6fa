package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory Store used in tests and local development. All
// operations take the same all-or-nothing shape as the Postgres
// implementation so pipeline behavior matches across backends.
type Memory struct {
	mu         sync.Mutex
	articles   map[string]*Article
	results    map[string]*EnrichmentResult
	processing map[string]bool
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		articles:   make(map[string]*Article),
		results:    make(map[string]*EnrichmentResult),
		processing: make(map[string]bool),
	}
}

// AddArticle inserts an article, standing in for the ingestion collaborator.
func (m *Memory) AddArticle(a Article) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := a
	m.articles[a.ID] = &copied
}

// Result returns the enrichment row for an article, if any.
func (m *Memory) Result(articleID string) (EnrichmentResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[articleID]
	if !ok {
		return EnrichmentResult{}, false
	}
	return *r, true
}

func (m *Memory) FetchUnenriched(_ context.Context, limit int32) ([]Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Article
	for id, a := range m.articles {
		if a.RiskLevel != nil || m.processing[id] {
			continue
		}
		if _, enriched := m.results[id]; enriched {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Claim(_ context.Context, articleID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[articleID]
	if !ok {
		return false, nil
	}
	if m.processing[articleID] || a.RiskLevel != nil {
		return false, nil
	}
	m.processing[articleID] = true
	return true, nil
}

func (m *Memory) Release(_ context.Context, articleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.processing, articleID)
	return nil
}

func (m *Memory) WriteEnrichment(_ context.Context, articleID string, result EnrichmentResult, risk RiskLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[articleID]
	if !ok {
		return ErrNotFound
	}

	copied := result
	copied.ArticleID = articleID
	m.results[articleID] = &copied

	now := time.Now()
	a.RiskLevel = &risk
	a.EnrichedAt = &now
	delete(m.processing, articleID)
	return nil
}

func (m *Memory) ResetEnrichment(_ context.Context, articleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[articleID]
	if !ok {
		return ErrNotFound
	}

	delete(m.results, articleID)
	a.RiskLevel = nil
	a.EnrichedAt = nil
	delete(m.processing, articleID)
	return nil
}

func (m *Memory) ReadEnriched(_ context.Context, filter EnrichedFilter) ([]EnrichedArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []EnrichedArticle
	for id, r := range m.results {
		a := m.articles[id]
		if a == nil {
			continue
		}
		if filter.RiskLevel != nil && (a.RiskLevel == nil || *a.RiskLevel != *filter.RiskLevel) {
			continue
		}
		if filter.Category != nil && r.Category != *filter.Category {
			continue
		}
		if filter.Source != nil && a.Source != *filter.Source {
			continue
		}
		if filter.Since != nil && a.PublishedAt.Before(*filter.Since) {
			continue
		}
		out = append(out, EnrichedArticle{Article: *a, Enrichment: *r})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && int32(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *Memory) GetArticle(_ context.Context, articleID string) (Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[articleID]
	if !ok {
		return Article{}, ErrNotFound
	}
	return *a, nil
}
