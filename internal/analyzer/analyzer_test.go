package analyzer_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finpulse/finance-radar/internal/analyzer"
	"github.com/finpulse/finance-radar/internal/elasticsearch"
)

type bulkCall struct {
	index string
	docs  []any
}

type stubStore struct {
	hits   map[string][]map[string]any
	writes []bulkCall
}

func (s *stubStore) BulkWrite(_ context.Context, index string, docs []any) (int, int) {
	s.writes = append(s.writes, bulkCall{index: index, docs: docs})
	return len(docs), 0
}

func (s *stubStore) Search(_ context.Context, index string, _ map[string]any, _ int) []map[string]any {
	return s.hits[index]
}

func newAnalyzer(store *stubStore) *analyzer.Analyzer {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return analyzer.New(store, log)
}

func newsHits(contents ...string) []map[string]any {
	hits := make([]map[string]any, 0, len(contents))
	for _, c := range contents {
		hits = append(hits, map[string]any{"content": c})
	}
	return hits
}

func TestOpeningNewsRatios(t *testing.T) {
	contents := make([]string, 0, 23)
	for i := 0; i < 7; i++ {
		contents = append(contents, fmt.Sprintf("利好消息 %d", i))
	}
	for i := 0; i < 3; i++ {
		contents = append(contents, fmt.Sprintf("市场下跌 %d", i))
	}
	for i := 0; i < 13; i++ {
		contents = append(contents, fmt.Sprintf("普通资讯 %d", i))
	}

	store := &stubStore{hits: map[string][]map[string]any{
		elasticsearch.IndexLiveNews: newsHits(contents...),
	}}
	a := newAnalyzer(store)

	result, err := a.OpeningNews(context.Background())
	require.NoError(t, err)

	require.Equal(t, "opening_news", result.AnalysisType)
	require.Equal(t, elasticsearch.IndexLiveNews, result.DataSource)
	require.Equal(t, 23, result.Metrics["total_news"])
	require.Equal(t, 0.3, result.Metrics["positive_ratio"])
	require.Equal(t, 0.13, result.Metrics["negative_ratio"])
	require.Contains(t, result.Content, "23")

	require.Len(t, store.writes, 1)
	require.Equal(t, elasticsearch.IndexAnalysis, store.writes[0].index)
	require.Len(t, store.writes[0].docs, 1)
}

func TestOpeningNewsEmptyWindow(t *testing.T) {
	store := &stubStore{hits: map[string][]map[string]any{}}
	a := newAnalyzer(store)

	result, err := a.OpeningNews(context.Background())
	require.NoError(t, err)

	require.Equal(t, 0, result.Metrics["total_news"])
	require.Equal(t, 0.0, result.Metrics["positive_ratio"])
	require.Equal(t, 0.0, result.Metrics["negative_ratio"])
	require.Equal(t, "暂无重要新闻", result.Content)
	require.Len(t, store.writes, 1)
}

func TestPreMarketStrategyBullish(t *testing.T) {
	contents := make([]string, 0, 14)
	for i := 0; i < 10; i++ {
		contents = append(contents, fmt.Sprintf("板块利好 %d", i))
	}
	for i := 0; i < 4; i++ {
		contents = append(contents, fmt.Sprintf("个股下跌 %d", i))
	}

	store := &stubStore{hits: map[string][]map[string]any{
		elasticsearch.IndexLiveNews: newsHits(contents...),
		elasticsearch.IndexNewStocks: {
			{"stock_code": "600001"},
			{"stock_code": "600002"},
		},
	}}
	a := newAnalyzer(store)

	strategy, err := a.PreMarketStrategy(context.Background())
	require.NoError(t, err)

	require.Equal(t, "pre_market_strategy", strategy.Type)
	require.Equal(t, "市场情绪偏多，建议适度参与", strategy.Strategy)
	require.Equal(t, "medium", strategy.RiskLevel)
	require.Equal(t, 0.75, strategy.Confidence)
	require.Equal(t, []string{"示例股票1", "示例股票2"}, strategy.TargetStocks)
	require.Equal(t, 14, strategy.DataSummary["news_count"])
	require.Equal(t, 2, strategy.DataSummary["newstock_count"])

	require.Len(t, store.writes, 1)
	require.Equal(t, elasticsearch.IndexStrategies, store.writes[0].index)
}

func TestPreMarketStrategyBearish(t *testing.T) {
	contents := make([]string, 0, 14)
	for i := 0; i < 4; i++ {
		contents = append(contents, fmt.Sprintf("板块利好 %d", i))
	}
	for i := 0; i < 10; i++ {
		contents = append(contents, fmt.Sprintf("大盘破位 %d", i))
	}

	store := &stubStore{hits: map[string][]map[string]any{
		elasticsearch.IndexLiveNews: newsHits(contents...),
	}}
	a := newAnalyzer(store)

	strategy, err := a.PreMarketStrategy(context.Background())
	require.NoError(t, err)
	require.Equal(t, "市场情绪偏空，建议谨慎操作", strategy.Strategy)
}

func TestPreMarketStrategyNoData(t *testing.T) {
	store := &stubStore{hits: map[string][]map[string]any{}}
	a := newAnalyzer(store)

	strategy, err := a.PreMarketStrategy(context.Background())
	require.NoError(t, err)

	require.Equal(t, "市场情绪中性，建议观望", strategy.Strategy)
	require.Equal(t, 0, strategy.DataSummary["news_count"])
	require.Len(t, store.writes, 1)
}

func TestClosingSummary(t *testing.T) {
	store := &stubStore{hits: map[string][]map[string]any{
		elasticsearch.IndexLiveNews: newsHits("a", "b", "c", "d", "e"),
	}}
	a := newAnalyzer(store)

	result, err := a.ClosingSummary(context.Background())
	require.NoError(t, err)

	require.Equal(t, "closing_summary", result.AnalysisType)
	require.Equal(t, "今日市场共产生 5 条资讯，整体表现稳定", result.Content)
	require.Equal(t, 5, result.Metrics["total_news"])
	require.Equal(t, "positive", result.Metrics["market_sentiment"])
	require.Len(t, result.Metrics["key_events"], 3)

	require.Len(t, store.writes, 1)
	require.Equal(t, elasticsearch.IndexAnalysis, store.writes[0].index)
}

func TestPlaceholderAnalyses(t *testing.T) {
	store := &stubStore{}
	a := newAnalyzer(store)

	dragon, err := a.DragonTigerList(context.Background())
	require.NoError(t, err)
	require.Equal(t, "dragon_tiger_list", dragon.AnalysisType)
	require.Equal(t, "external_api", dragon.DataSource)
	require.Equal(t, 10, dragon.Metrics["hot_stocks_count"])

	northbound, err := a.NorthboundCapital(context.Background())
	require.NoError(t, err)
	require.Equal(t, "northbound_capital", northbound.AnalysisType)
	require.Equal(t, []string{"消费", "医药", "科技"}, northbound.Metrics["top_sectors"])

	require.Len(t, store.writes, 2)
	for _, w := range store.writes {
		require.Equal(t, elasticsearch.IndexAnalysis, w.index)
	}
}
