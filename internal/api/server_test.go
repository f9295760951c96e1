package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finpulse/finance-radar/internal/api"
	"github.com/finpulse/finance-radar/internal/models"
)

type stubStore struct {
	connected bool
	hits      []map[string]any

	lastIndex string
	lastQuery map[string]any
	lastSize  int
}

func (s *stubStore) Ping(context.Context) bool { return s.connected }

func (s *stubStore) Search(_ context.Context, index string, query map[string]any, size int) []map[string]any {
	s.lastIndex = index
	s.lastQuery = query
	s.lastSize = size
	return s.hits
}

type stubCrawler struct {
	err        error
	industries []string
}

func (c *stubCrawler) CrawlLiveNews(context.Context) ([]models.LiveNewsItem, error) {
	return nil, c.err
}

func (c *stubCrawler) CrawlNewStocks(context.Context) ([]models.NewStockListing, error) {
	return nil, c.err
}

func (c *stubCrawler) CrawlIndustry(_ context.Context, industry string) ([]models.IndustryArticle, error) {
	c.industries = append(c.industries, industry)
	return nil, c.err
}

type stubAnalyzer struct {
	err   error
	calls []string
}

func (a *stubAnalyzer) record(name string) error {
	a.calls = append(a.calls, name)
	return a.err
}

func (a *stubAnalyzer) PreMarketStrategy(context.Context) (models.TradingStrategy, error) {
	return models.TradingStrategy{Type: "pre_market_strategy", Confidence: 0.75}, a.record("pre_market")
}

func (a *stubAnalyzer) OpeningNews(context.Context) (models.AnalysisResult, error) {
	return models.AnalysisResult{AnalysisType: "opening_news"}, a.record("opening_news")
}

func (a *stubAnalyzer) DragonTigerList(context.Context) (models.AnalysisResult, error) {
	return models.AnalysisResult{AnalysisType: "dragon_tiger_list"}, a.record("dragon_tiger")
}

func (a *stubAnalyzer) NorthboundCapital(context.Context) (models.AnalysisResult, error) {
	return models.AnalysisResult{AnalysisType: "northbound_capital"}, a.record("northbound")
}

func (a *stubAnalyzer) ClosingSummary(context.Context) (models.AnalysisResult, error) {
	return models.AnalysisResult{AnalysisType: "closing_summary"}, a.record("closing")
}

func newTestServer(store *stubStore, crawler *stubCrawler, analyzer *stubAnalyzer) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewServer(store, crawler, analyzer, 10, 100, log).Router()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestHealthReportsStoreConnectivity(t *testing.T) {
	h := newTestServer(&stubStore{connected: true}, &stubCrawler{}, &stubAnalyzer{})
	rec, payload := doRequest(t, h, http.MethodGet, "/api/v1/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", payload["status"])
	require.Equal(t, "connected", payload["elasticsearch"])
	require.NotEmpty(t, payload["timestamp"])

	h = newTestServer(&stubStore{connected: false}, &stubCrawler{}, &stubAnalyzer{})
	_, payload = doRequest(t, h, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, "disconnected", payload["elasticsearch"])
}

func TestPreMarketEndpoint(t *testing.T) {
	h := newTestServer(&stubStore{}, &stubCrawler{}, &stubAnalyzer{})
	rec, payload := doRequest(t, h, http.MethodGet, "/api/v1/data/pre_market", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, payload["success"])
	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "pre_market_strategy", data["type"])
}

func TestPreMarketEndpointFailure(t *testing.T) {
	h := newTestServer(&stubStore{}, &stubCrawler{}, &stubAnalyzer{err: fmt.Errorf("boom")})
	rec, payload := doRequest(t, h, http.MethodGet, "/api/v1/data/pre_market", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, false, payload["success"])
	require.NotEmpty(t, payload["error"])
}

func TestCrawlNowCoversAllIndustries(t *testing.T) {
	crawler := &stubCrawler{}
	h := newTestServer(&stubStore{}, crawler, &stubAnalyzer{})
	rec, payload := doRequest(t, h, http.MethodPost, "/api/v1/crawl/now", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, payload["success"])
	require.Equal(t, []string{"tech", "finance", "healthcare", "consumer", "industrial", "energy"}, crawler.industries)
}

func TestCrawlNowFailure(t *testing.T) {
	h := newTestServer(&stubStore{}, &stubCrawler{err: fmt.Errorf("feed unreachable")}, &stubAnalyzer{})
	rec, payload := doRequest(t, h, http.MethodPost, "/api/v1/crawl/now", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, false, payload["success"])
}

func TestExecuteTaskDispatch(t *testing.T) {
	for task, artifactType := range map[string]string{
		"opening_news": "opening_news",
		"dragon_tiger": "dragon_tiger_list",
		"northbound":   "northbound_capital",
		"closing":      "closing_summary",
	} {
		analyzer := &stubAnalyzer{}
		h := newTestServer(&stubStore{}, &stubCrawler{}, analyzer)
		rec, payload := doRequest(t, h, http.MethodPost, "/api/v1/tasks/execute/"+task, "")

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, true, payload["success"])
		data := payload["data"].(map[string]any)
		require.Equal(t, artifactType, data["analysis_type"])
		require.Equal(t, []string{task}, analyzer.calls)
	}
}

func TestExecuteTaskUnknownName(t *testing.T) {
	analyzer := &stubAnalyzer{}
	h := newTestServer(&stubStore{}, &stubCrawler{}, analyzer)
	rec, payload := doRequest(t, h, http.MethodPost, "/api/v1/tasks/execute/mystery", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, false, payload["success"])
	require.Contains(t, payload["error"], "mystery")
	require.Empty(t, analyzer.calls)
}

func TestExecuteTaskRoutineFailure(t *testing.T) {
	h := newTestServer(&stubStore{}, &stubCrawler{}, &stubAnalyzer{err: fmt.Errorf("store down")})
	rec, payload := doRequest(t, h, http.MethodPost, "/api/v1/tasks/execute/closing", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, false, payload["success"])
}

func TestSearchProxiesQuery(t *testing.T) {
	store := &stubStore{hits: []map[string]any{
		{"content": "利好"},
		{"content": "利空"},
	}}
	h := newTestServer(store, &stubCrawler{}, &stubAnalyzer{})

	body := `{"query": {"query": {"match_all": {}}}, "size": 2}`
	rec, payload := doRequest(t, h, http.MethodPost, "/api/v1/search/sina_live_data", body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, payload["success"])
	require.EqualValues(t, 2, payload["count"])
	require.Len(t, payload["data"], 2)
	require.Equal(t, "sina_live_data", store.lastIndex)
	require.Equal(t, 2, store.lastSize)
}

func TestSearchDefaultsSize(t *testing.T) {
	store := &stubStore{}
	h := newTestServer(store, &stubCrawler{}, &stubAnalyzer{})

	rec, payload := doRequest(t, h, http.MethodPost, "/api/v1/search/analysis_results", `{"query": {}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 10, store.lastSize)
	require.EqualValues(t, 0, payload["count"])
	require.NotNil(t, payload["data"])
}

func TestSearchUndecodableBody(t *testing.T) {
	h := newTestServer(&stubStore{}, &stubCrawler{}, &stubAnalyzer{})
	rec, payload := doRequest(t, h, http.MethodPost, "/api/v1/search/sina_live_data", "{not json")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, false, payload["success"])
}
