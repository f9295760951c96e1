package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/finpulse/finance-radar/internal/models"
)

// industries is the fixed sector list covered by an on-demand crawl.
var industries = []string{"tech", "finance", "healthcare", "consumer", "industrial", "energy"}

// Crawling is the adapter surface the API triggers on demand.
type Crawling interface {
	CrawlLiveNews(ctx context.Context) ([]models.LiveNewsItem, error)
	CrawlNewStocks(ctx context.Context) ([]models.NewStockListing, error)
	CrawlIndustry(ctx context.Context, industry string) ([]models.IndustryArticle, error)
}

// Analyzing is the analysis-routine surface the API triggers on demand.
type Analyzing interface {
	PreMarketStrategy(ctx context.Context) (models.TradingStrategy, error)
	OpeningNews(ctx context.Context) (models.AnalysisResult, error)
	DragonTigerList(ctx context.Context) (models.AnalysisResult, error)
	NorthboundCapital(ctx context.Context) (models.AnalysisResult, error)
	ClosingSummary(ctx context.Context) (models.AnalysisResult, error)
}

// Store is the read slice of the store gateway the API proxies.
type Store interface {
	Ping(ctx context.Context) bool
	Search(ctx context.Context, index string, query map[string]any, size int) []map[string]any
}

// Server holds the stateless request handlers. It adds request validation and
// response shaping only; all business logic lives behind the interfaces.
type Server struct {
	log      *slog.Logger
	store    Store
	crawler  Crawling
	analyzer Analyzing

	defaultSize int
	maxSize     int
}

// NewServer wires the handler dependencies.
func NewServer(store Store, crawler Crawling, analyzer Analyzing, defaultSize, maxSize int, log *slog.Logger) *Server {
	if defaultSize <= 0 {
		defaultSize = 10
	}
	if maxSize < defaultSize {
		maxSize = defaultSize
	}
	return &Server{
		log:         log,
		store:       store,
		crawler:     crawler,
		analyzer:    analyzer,
		defaultSize: defaultSize,
		maxSize:     maxSize,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/data/pre_market", s.handlePreMarket)
		r.Post("/crawl/now", s.handleCrawlNow)
		r.Post("/tasks/execute/{task_name}", s.handleExecuteTask)
		r.Post("/search/{collection}", s.handleSearch)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "disconnected"
	if s.store.Ping(ctx) {
		status = "connected"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"timestamp":     time.Now().Format(time.RFC3339),
		"elasticsearch": status,
	})
}

func (s *Server) handlePreMarket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	strategy, err := s.analyzer.PreMarketStrategy(ctx)
	if err != nil {
		s.log.Error("pre-market strategy", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": strategy})
}

func (s *Server) handleCrawlNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	if _, err := s.crawler.CrawlLiveNews(ctx); err != nil {
		s.log.Error("crawl live news", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if _, err := s.crawler.CrawlNewStocks(ctx); err != nil {
		s.log.Error("crawl new stocks", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	for _, industry := range industries {
		if _, err := s.crawler.CrawlIndustry(ctx, industry); err != nil {
			s.log.Error("crawl industry", slog.String("industry", industry), slog.Any("err", err))
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "数据抓取完成"})
}

func (s *Server) handleExecuteTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	name := chi.URLParam(r, "task_name")

	// The task set is closed; anything else is a client error.
	var (
		artifact any
		err      error
	)
	switch name {
	case "pre_market":
		artifact, err = s.analyzer.PreMarketStrategy(ctx)
	case "opening_news":
		artifact, err = s.analyzer.OpeningNews(ctx)
	case "dragon_tiger":
		artifact, err = s.analyzer.DragonTigerList(ctx)
	case "northbound":
		artifact, err = s.analyzer.NorthboundCapital(ctx)
	case "closing":
		artifact, err = s.analyzer.ClosingSummary(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("未知任务: %s", name))
		return
	}

	if err != nil {
		s.log.Error("execute task", slog.String("task", name), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": artifact})
}

type searchRequest struct {
	Query map[string]any `json:"query"`
	Size  int            `json:"size"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	collection := chi.URLParam(r, "collection")

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Error("decode search request", slog.String("collection", collection), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	size := req.Size
	if size <= 0 {
		size = s.defaultSize
	}
	if size > s.maxSize {
		size = s.maxSize
	}

	query := req.Query
	if query == nil {
		query = map[string]any{}
	}

	results := s.store.Search(ctx, collection, query, size)
	if results == nil {
		results = []map[string]any{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    results,
		"count":   len(results),
	})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
