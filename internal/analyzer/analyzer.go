package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finpulse/finance-radar/internal/elasticsearch"
	"github.com/finpulse/finance-radar/internal/models"
	"github.com/finpulse/finance-radar/internal/processing"
)

// AnalysisStore is the slice of the store gateway the analyzer reads from and
// writes artifacts through.
type AnalysisStore interface {
	BulkWrite(ctx context.Context, index string, docs []any) (success, failed int)
	Search(ctx context.Context, index string, query map[string]any, size int) []map[string]any
}

// Analyzer derives strategy and analysis artifacts from recently stored
// documents using fixed keyword heuristics. Every routine writes exactly one
// artifact and returns it, whether or not the underlying reads found data.
type Analyzer struct {
	store AnalysisStore
	log   *slog.Logger
	now   func() time.Time
}

// New builds an Analyzer.
func New(store AnalysisStore, log *slog.Logger) *Analyzer {
	return &Analyzer{store: store, log: log, now: time.Now}
}

func recentQuery(window string, sorted bool) map[string]any {
	q := map[string]any{
		"query": map[string]any{
			"range": map[string]any{
				"create_time": map[string]any{
					"gte": "now-" + window,
				},
			},
		},
	}
	if sorted {
		q["sort"] = []map[string]any{
			{"create_time": map[string]any{"order": "desc"}},
		}
	}
	return q
}

func contentsOf(hits []map[string]any) []string {
	contents := make([]string, 0, len(hits))
	for _, hit := range hits {
		if content, ok := hit["content"].(string); ok {
			contents = append(contents, content)
		} else {
			contents = append(contents, "")
		}
	}
	return contents
}

// PreMarketStrategy reads the last 24h of news and listings and produces the
// daily pre-market trading strategy.
func (a *Analyzer) PreMarketStrategy(ctx context.Context) (models.TradingStrategy, error) {
	a.log.Info("generating pre-market strategy")

	query := recentQuery("24h", true)
	news := a.store.Search(ctx, elasticsearch.IndexLiveNews, query, 50)
	listings := a.store.Search(ctx, elasticsearch.IndexNewStocks, query, 10)

	strategy := models.TradingStrategy{
		Type:         "pre_market_strategy",
		Strategy:     marketSentiment(contentsOf(news)),
		RiskLevel:    "medium",
		TargetStocks: identifyHotStocks(news),
		Confidence:   0.75,
		CreateTime:   a.now(),
		DataSummary: map[string]int{
			"news_count":     len(news),
			"newstock_count": len(listings),
		},
	}

	a.store.BulkWrite(ctx, elasticsearch.IndexStrategies, []any{strategy})
	return strategy, nil
}

// OpeningNews summarizes the last 2h of news into positive/negative ratios.
func (a *Analyzer) OpeningNews(ctx context.Context) (models.AnalysisResult, error) {
	a.log.Info("analyzing opening news")

	hits := a.store.Search(ctx, elasticsearch.IndexLiveNews, recentQuery("2h", false), 100)
	contents := contentsOf(hits)

	analysis := models.AnalysisResult{
		AnalysisType: "opening_news",
		Content:      summarizeNews(len(hits)),
		DataSource:   elasticsearch.IndexLiveNews,
		Metrics: map[string]any{
			"total_news":     len(hits),
			"positive_ratio": processing.Ratio(processing.CountMatching(contents, processing.RatioPositive), len(contents)),
			"negative_ratio": processing.Ratio(processing.CountMatching(contents, processing.RatioNegative), len(contents)),
		},
		CreateTime: a.now(),
	}

	a.store.BulkWrite(ctx, elasticsearch.IndexAnalysis, []any{analysis})
	return analysis, nil
}

// DragonTigerList is a schema-compatible placeholder until a real listings
// feed exists; its content and metrics are fixed.
func (a *Analyzer) DragonTigerList(ctx context.Context) (models.AnalysisResult, error) {
	a.log.Info("analyzing dragon-tiger list")

	analysis := models.AnalysisResult{
		AnalysisType: "dragon_tiger_list",
		Content:      "龙虎榜分析：今日上榜个股主要集中在科技板块...",
		DataSource:   "external_api",
		Metrics: map[string]any{
			"hot_stocks_count":   10,
			"institutional_buy":  5,
			"institutional_sell": 3,
		},
		CreateTime: a.now(),
	}

	a.store.BulkWrite(ctx, elasticsearch.IndexAnalysis, []any{analysis})
	return analysis, nil
}

// NorthboundCapital is a fixed-content placeholder like DragonTigerList.
func (a *Analyzer) NorthboundCapital(ctx context.Context) (models.AnalysisResult, error) {
	a.log.Info("analyzing northbound capital")

	analysis := models.AnalysisResult{
		AnalysisType: "northbound_capital",
		Content:      "北向资金今日净流入，主要流向消费和医药板块...",
		DataSource:   "external_api",
		Metrics: map[string]any{
			"net_inflow":  5000000000,
			"top_sectors": []string{"消费", "医药", "科技"},
		},
		CreateTime: a.now(),
	}

	a.store.BulkWrite(ctx, elasticsearch.IndexAnalysis, []any{analysis})
	return analysis, nil
}

// ClosingSummary condenses the last 8h of news into the end-of-day artifact.
func (a *Analyzer) ClosingSummary(ctx context.Context) (models.AnalysisResult, error) {
	a.log.Info("generating closing summary")

	hits := a.store.Search(ctx, elasticsearch.IndexLiveNews, recentQuery("8h", false), 500)

	analysis := models.AnalysisResult{
		AnalysisType: "closing_summary",
		Content:      fmt.Sprintf("今日市场共产生 %d 条资讯，整体表现稳定", len(hits)),
		DataSource:   "multiple",
		Metrics: map[string]any{
			"total_news":       len(hits),
			"market_sentiment": "positive",
			"key_events":       extractKeyEvents(hits),
		},
		CreateTime: a.now(),
	}

	a.store.BulkWrite(ctx, elasticsearch.IndexAnalysis, []any{analysis})
	return analysis, nil
}

// marketSentiment maps the 1.5x keyword-count comparison onto the fixed
// narrative strings.
func marketSentiment(contents []string) string {
	if len(contents) == 0 {
		return "市场情绪中性，建议观望"
	}

	positive := processing.CountMatching(contents, processing.StrategyPositive)
	negative := processing.CountMatching(contents, processing.StrategyNegative)

	switch processing.SentimentLabel(positive, negative) {
	case processing.Bullish:
		return "市场情绪偏多，建议适度参与"
	case processing.Bearish:
		return "市场情绪偏空，建议谨慎操作"
	default:
		return "市场情绪中性，建议观望"
	}
}

func summarizeNews(count int) string {
	if count == 0 {
		return "暂无重要新闻"
	}
	return fmt.Sprintf("今日共有 %d 条重要资讯，市场关注度较高", count)
}

// identifyHotStocks is a stub pending a real screening source.
func identifyHotStocks(_ []map[string]any) []string {
	return []string{"示例股票1", "示例股票2"}
}

// extractKeyEvents is a stub pending real event extraction.
func extractKeyEvents(_ []map[string]any) []string {
	return []string{"重要事件1", "重要事件2", "重要事件3"}
}
