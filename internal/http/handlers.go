package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"intel-system/internal/ai"
	"intel-system/internal/cache"
	"intel-system/internal/store"
)

const maxListLimit = 100

// Analyst produces on-demand narrative analysis. Satisfied by *ai.Client.
type Analyst interface {
	GenerateAnalysis(ctx context.Context, req ai.Request) (*ai.Result, error)
}

// IntelHandler serves the read-only surface consumed by the dashboard
// collaborator: enriched articles and on-demand analysis. It never writes
// article or enrichment state.
type IntelHandler struct {
	store store.Store
	cache *cache.RedisCache
	ai    Analyst
}

// NewIntelHandler wires the handler; cache may be nil.
func NewIntelHandler(s store.Store, c *cache.RedisCache, analyst Analyst) *IntelHandler {
	return &IntelHandler{store: s, cache: c, ai: analyst}
}

// RegisterRoutes mounts all intel routes.
func (h *IntelHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/articles", h.ListEnriched)
		r.Get("/articles/{id}", h.GetArticle)
		r.Post("/analysis", h.GenerateAnalysis)
	})
}

// ListEnriched returns enriched articles, optionally filtered by risk level,
// category and source.
func (h *IntelHandler) ListEnriched(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter store.EnrichedFilter

	if v := q.Get("risk"); v != "" {
		risk := store.RiskLevel(v)
		if !risk.Valid() {
			httpError(w, http.StatusBadRequest, "invalid risk level")
			return
		}
		filter.RiskLevel = &risk
	}
	if v := q.Get("category"); v != "" {
		category := store.Category(v)
		filter.Category = &category
	}
	if v := q.Get("source"); v != "" {
		source := v
		filter.Source = &source
	}
	filter.Limit = 50
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > maxListLimit {
			httpError(w, http.StatusBadRequest, "invalid limit value")
			return
		}
		filter.Limit = int32(limit)
	}

	key := cache.EnrichedKey(q.Get("risk"), q.Get("category"), q.Get("source"), filter.Limit)
	if h.cache != nil {
		if data, err := h.cache.Get(r.Context(), key); err == nil {
			writeRawJSON(w, data)
			return
		}
	}

	articles, err := h.store.ReadEnriched(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Read enriched failed")
		httpError(w, http.StatusInternalServerError, "failed to read articles")
		return
	}
	if articles == nil {
		articles = []store.EnrichedArticle{}
	}

	payload, err := json.Marshal(map[string]any{
		"articles": articles,
		"total":    len(articles),
	})
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), key, payload, cache.EnrichedTTL); err != nil {
			log.Warn().Err(err).Msg("Cache write failed")
		}
	}
	writeRawJSON(w, payload)
}

// GetArticle returns one article by ID, enriched or not.
func (h *IntelHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	key := cache.ArticleKey(id)
	if h.cache != nil {
		if data, err := h.cache.Get(r.Context(), key); err == nil {
			writeRawJSON(w, data)
			return
		}
	}

	article, err := h.store.GetArticle(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httpError(w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("article_id", id).Msg("Get article failed")
		httpError(w, http.StatusInternalServerError, "failed to read article")
		return
	}

	payload, err := json.Marshal(article)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	if h.cache != nil {
		if err := h.cache.Set(r.Context(), key, payload, cache.ArticleTTL); err != nil {
			log.Warn().Err(err).Msg("Cache write failed")
		}
	}
	writeRawJSON(w, payload)
}

type analysisRequest struct {
	Articles       []ai.ArticleInput `json:"articles"`
	Type           ai.AnalysisType   `json:"analysis_type"`
	TargetLanguage string            `json:"target_language"`
}

// GenerateAnalysis runs the multi-provider client over the posted batch.
func (h *IntelHandler) GenerateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" {
		req.Type = ai.AnalysisBriefing
	}

	result, err := h.ai.GenerateAnalysis(r.Context(), ai.Request{
		Articles:       req.Articles,
		Type:           req.Type,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		if errors.Is(err, ai.ErrEmptyBatch) || errors.Is(err, ai.ErrIncompleteArticle) {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Analysis failed")
		httpError(w, http.StatusInternalServerError, "failed to generate analysis")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Encode response failed")
	}
}

func writeRawJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("Write response failed")
	}
}

func httpError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": message},
	})
}
