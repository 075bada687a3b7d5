// Package api exposes the HTTP interface for the insights service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Jadavivek/deepsolv/internal/compare"
	"github.com/Jadavivek/deepsolv/internal/config"
	"github.com/Jadavivek/deepsolv/internal/insights"
	"github.com/Jadavivek/deepsolv/internal/metrics"
)

// Extractor runs the full extraction pipeline for one storefront.
type Extractor interface {
	ExtractInsights(ctx context.Context, websiteURL string) (insights.BrandInsights, error)
}

// Analyzer runs the competitor comparison pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, mainURL string, competitorURLs []string, maxCompetitors int) (compare.Analysis, error)
}

// Server wires HTTP handlers to the extraction pipeline and store.
type Server struct {
	router    chi.Router
	extractor Extractor
	analyzer  Analyzer
	store     insights.InsightStore
	cfg       config.Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	extractor Extractor,
	analyzer Analyzer,
	store insights.InsightStore,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		extractor: extractor,
		analyzer:  analyzer,
		store:     store,
		cfg:       cfg,
		logger:    logger.Named("api"),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(120 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Route("/insights", func(r chi.Router) {
			r.Post("/extract", s.extract)
			r.Post("/competitors", s.competitors)
			r.Get("/history", s.history)
			r.Get("/stats", s.stats)
			r.Delete("/", s.deleteBrand)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Stats(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type extractRequest struct {
	WebsiteURL   string `json:"website_url"`
	ForceRefresh bool   `json:"force_refresh"`
}

type extractResponse struct {
	Insights insights.BrandInsights `json:"insights"`
	Cached   bool                   `json:"cached"`
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WebsiteURL == "" {
		writeError(w, http.StatusBadRequest, "website_url is required")
		return
	}
	normalized, err := insights.NormalizeSiteURL(req.WebsiteURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !req.ForceRefresh {
		cached, err := s.store.GetRecentInsights(r.Context(), normalized, s.cfg.InsightsTTL())
		if err != nil {
			s.logger.Warn("cache lookup failed", zap.String("url", normalized), zap.Error(err))
		} else if cached != nil {
			writeJSON(w, http.StatusOK, extractResponse{Insights: *cached, Cached: true})
			return
		}
	}

	start := time.Now()
	record, err := s.extractor.ExtractInsights(r.Context(), normalized)
	elapsed := time.Since(start)
	if err != nil {
		s.logExtraction(r.Context(), insights.ExtractionLog{
			WebsiteURL: normalized,
			Status:     insights.ExtractionFailed,
			ErrorText:  err.Error(),
			Elapsed:    elapsed,
		})
		switch {
		case errors.Is(err, insights.ErrNotFound), errors.Is(err, insights.ErrUnreachable):
			writeError(w, http.StatusNotFound, fmt.Sprintf("website not accessible: %s", normalized))
		default:
			writeError(w, http.StatusInternalServerError, "extraction failed")
		}
		return
	}

	if _, err := s.store.SaveInsights(r.Context(), record); err != nil {
		s.logger.Error("save insights failed", zap.String("url", normalized), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to persist insights")
		return
	}
	s.logExtraction(r.Context(), insights.ExtractionLog{
		WebsiteURL: normalized,
		Status:     insights.ExtractionSucceeded,
		Elapsed:    elapsed,
		DataPoints: record.DataPointCount(),
	})
	writeJSON(w, http.StatusOK, extractResponse{Insights: record})
}

type competitorsRequest struct {
	WebsiteURL     string   `json:"website_url"`
	CompetitorURLs []string `json:"competitor_urls"`
	MaxCompetitors int      `json:"max_competitors"`
}

func (s *Server) competitors(w http.ResponseWriter, r *http.Request) {
	var req competitorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WebsiteURL == "" {
		writeError(w, http.StatusBadRequest, "website_url is required")
		return
	}
	normalized, err := insights.NormalizeSiteURL(req.WebsiteURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), normalized, req.CompetitorURLs, req.MaxCompetitors)
	if err != nil {
		switch {
		case errors.Is(err, insights.ErrNotFound), errors.Is(err, insights.ErrUnreachable):
			writeError(w, http.StatusNotFound, fmt.Sprintf("website not accessible: %s", normalized))
		default:
			writeError(w, http.StatusInternalServerError, "competitor analysis failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	websiteURL := r.URL.Query().Get("website_url")
	if websiteURL == "" {
		writeError(w, http.StatusBadRequest, "website_url is required")
		return
	}
	normalized, err := insights.NormalizeSiteURL(websiteURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}
	logs, err := s.store.History(r.Context(), normalized, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"website_url": normalized, "history": logs})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) deleteBrand(w http.ResponseWriter, r *http.Request) {
	websiteURL := r.URL.Query().Get("website_url")
	if websiteURL == "" {
		writeError(w, http.StatusBadRequest, "website_url is required")
		return
	}
	normalized, err := insights.NormalizeSiteURL(websiteURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	deleted, err := s.store.Delete(r.Context(), normalized)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete insights")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "no insights found for website")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"website_url": normalized, "status": "deleted"})
}

func (s *Server) logExtraction(ctx context.Context, entry insights.ExtractionLog) {
	if err := s.store.LogExtraction(ctx, entry); err != nil {
		s.logger.Warn("log extraction failed", zap.String("url", entry.WebsiteURL), zap.Error(err))
	}
}
