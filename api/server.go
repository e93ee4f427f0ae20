// Package api provides the HTTP REST API server for FinPulse.
//
// It exposes endpoints for triggering news fetches, reading stored
// headlines, and aggregate market sentiment.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/finpulse/finpulse/internal/config"
	"github.com/finpulse/finpulse/internal/fetch"
	"github.com/finpulse/finpulse/internal/pipeline"
	"github.com/finpulse/finpulse/internal/sentiment"
	"github.com/finpulse/finpulse/internal/source"
	"github.com/finpulse/finpulse/internal/store"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	pipe   *pipeline.Pipeline
	store  *store.Store
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, pipe *pipeline.Pipeline, st *store.Store) *Server {
	srv := &Server{
		cfg:   cfg,
		pipe:  pipe,
		store: st,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Stored headlines
		r.Get("/news", s.handleNews)

		// Trigger a fetch/classify/store cycle
		r.Post("/fetch", s.handleFetch)

		// Aggregate market sentiment
		r.Get("/market-sentiment", s.handleMarketSentiment)

		// Supported countries and feed registry
		r.Get("/countries", s.handleCountries)
		r.Get("/sources", s.handleSources)

		// Store stats
		r.Get("/stats", s.handleStats)

		// Configuration keys status
		r.Get("/config/keys", s.handleConfigKeys)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// FetchRequest is the body for POST /api/v1/fetch.
type FetchRequest struct {
	Scope    string `json:"scope,omitempty"`     // "country", "international", "global"
	Country  string `json:"country,omitempty"`   // ISO code, default "us"
	Mode     string `json:"mode,omitempty"`      // "api", "rss", "both"
	Query    string `json:"query,omitempty"`     // global scope search query
	PageSize int    `json:"page_size,omitempty"` // max articles, default 50
}

// FetchResponse summarizes a completed fetch cycle.
type FetchResponse struct {
	Fetched  int            `json:"fetched"`
	Stored   int            `json:"stored"`
	API      int            `json:"api_articles"`
	RSS      int            `json:"rss_articles"`
	BySource map[string]int `json:"by_source,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": "dev",
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	items, err := s.store.Recent(ctx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"count":    len(items),
			"articles": items,
		},
	})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	scope := pipeline.ScopeCountry
	switch strings.ToLower(req.Scope) {
	case "", "country":
		scope = pipeline.ScopeCountry
	case "international":
		scope = pipeline.ScopeInternational
	case "global":
		scope = pipeline.ScopeGlobal
	default:
		writeError(w, http.StatusBadRequest, "scope must be country, international, or global")
		return
	}

	mode, err := fetch.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	country := strings.ToLower(strings.TrimSpace(req.Country))
	if country != "" && !source.IsSupportedCountry(country) {
		writeError(w, http.StatusBadRequest, "unsupported country: "+country)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	result, err := s.pipe.FetchAndStore(ctx, pipeline.Options{
		Scope:    scope,
		Mode:     mode,
		Country:  country,
		Query:    req.Query,
		PageSize: req.PageSize,
	})
	if err != nil {
		if errors.Is(err, source.ErrNoArticles) {
			writeError(w, http.StatusNotFound, "no articles found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: FetchResponse{
			Fetched:  len(result.Articles),
			Stored:   result.Stored,
			API:      result.Counts.API,
			RSS:      result.Counts.RSS,
			BySource: result.Counts.BySource,
		},
	})
}

func (s *Server) handleMarketSentiment(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	items, err := s.store.Recent(ctx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    sentiment.AnalyzeMarket(items),
	})
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"supported":     source.SupportedCountryCodes(),
			"rss":           source.RSSCountries(),
			"major_markets": source.MajorMarkets,
		},
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	country := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("country")))

	var feeds []source.Feed
	if country != "" {
		feeds = source.FeedsFor(country)
	} else {
		feeds = source.FinancialFeeds()
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"count": len(feeds),
			"feeds": feeds,
		},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	total, err := s.store.Count(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	bySentiment, err := s.store.CountBySentiment(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"total":        total,
			"by_sentiment": bySentiment,
		},
	})
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
