package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/finpulse/finance-radar/internal/dedupe"
	"github.com/finpulse/finance-radar/internal/elasticsearch"
	"github.com/finpulse/finance-radar/internal/fetcher"
	"github.com/finpulse/finance-radar/internal/models"
	"github.com/finpulse/finance-radar/internal/processing"
	"github.com/finpulse/finance-radar/internal/stream"
)

// Caps on how much a single crawl ingests from each source page.
const (
	maxNewsEntries    = 20
	maxListingRows    = 10
	maxIndustryPieces = 10
)

// DocumentStore is the slice of the store gateway the adapters write through.
type DocumentStore interface {
	BulkWrite(ctx context.Context, index string, docs []any) (success, failed int)
}

// Sources carries the fixed page locations the adapters crawl.
type Sources struct {
	NewsFeedURL     string
	ListingsURL     string
	IndustryURLBase string
}

// Crawler normalizes scraped pages into typed documents and persists them.
// Each adapter follows the same protocol: fetch, parse elements, normalize
// per item with skip isolation, bulk write everything that parsed.
type Crawler struct {
	store DocumentStore
	fetch fetcher.PageFetcher
	seen  *dedupe.Cache
	tap   *stream.Publisher
	src   Sources
	log   *slog.Logger
	now   func() time.Time
}

// New builds a Crawler. seen and tap may be nil to disable deduplication and
// the stream tap respectively.
func New(store DocumentStore, fetch fetcher.PageFetcher, seen *dedupe.Cache, tap *stream.Publisher, src Sources, log *slog.Logger) *Crawler {
	return &Crawler{
		store: store,
		fetch: fetch,
		seen:  seen,
		tap:   tap,
		src:   src,
		log:   log,
		now:   time.Now,
	}
}

// CrawlLiveNews ingests up to 20 entries from the live finance feed. A fetch
// failure yields (nil, error); a malformed entry is skipped without aborting
// the rest; zero valid entries is a normal, write-free completion.
func (c *Crawler) CrawlLiveNews(ctx context.Context) ([]models.LiveNewsItem, error) {
	c.log.Info("crawling live news feed", slog.String("url", c.src.NewsFeedURL))

	doc, err := c.fetch.Fetch(ctx, c.src.NewsFeedURL)
	if err != nil {
		return nil, fmt.Errorf("crawl live news: %w", err)
	}

	items := make([]models.LiveNewsItem, 0, maxNewsEntries)
	fingerprints := make([]string, 0, maxNewsEntries)

	capped(doc.Find(".bd_i"), maxNewsEntries).Each(func(i int, s *goquery.Selection) {
		contentSel := s.Find(".bd_i_txt_c")
		timeSel := s.Find(".bd_i_time")
		if contentSel.Length() == 0 || timeSel.Length() == 0 {
			c.log.Warn("skipping malformed feed entry", slog.Int("position", i))
			return
		}

		content := strings.TrimSpace(contentSel.Text())
		if content == "" {
			c.log.Warn("skipping empty feed entry", slog.Int("position", i))
			return
		}

		fp := dedupe.Fingerprint(content)
		if c.seen != nil && c.seen.IsSeen(fp) {
			c.log.Debug("duplicate feed entry", slog.String("fingerprint", fp))
			return
		}

		now := c.now()
		items = append(items, models.LiveNewsItem{
			Content:     content,
			PublishTime: now,
			Source:      "sina_finance",
			Author:      "新浪财经",
			CreateTime:  now,
			Tags:        processing.ExtractTags(content),
		})
		fingerprints = append(fingerprints, fp)
	})

	if len(items) > 0 {
		docs := toAny(items)
		success, _ := c.store.BulkWrite(ctx, elasticsearch.IndexLiveNews, docs)
		if c.seen != nil && success > 0 {
			for _, fp := range fingerprints {
				c.seen.MarkSeen(fp)
			}
		}
		c.tap.Publish(ctx, elasticsearch.IndexLiveNews, docs)
	}

	c.log.Info("live news crawl finished", slog.Int("count", len(items)))
	return items, nil
}

// CrawlNewStocks ingests up to 10 rows from the new-stock listings table.
// Rows with fewer than 6 cells are skipped whole; numeric cells that fail to
// parse become 0.0 rather than errors.
func (c *Crawler) CrawlNewStocks(ctx context.Context) ([]models.NewStockListing, error) {
	c.log.Info("crawling new stock listings", slog.String("url", c.src.ListingsURL))

	doc, err := c.fetch.Fetch(ctx, c.src.ListingsURL)
	if err != nil {
		return nil, fmt.Errorf("crawl new stocks: %w", err)
	}

	listings := make([]models.NewStockListing, 0, maxListingRows)

	capped(doc.Find("table tbody tr"), maxListingRows).Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			c.log.Warn("skipping short listings row",
				slog.Int("position", i),
				slog.Int("cells", cells.Length()),
			)
			return
		}

		industry := ""
		if cells.Length() > 6 {
			industry = cellText(cells, 6)
		}

		listings = append(listings, models.NewStockListing{
			StockCode:   cellText(cells, 0),
			StockName:   cellText(cells, 1),
			IssuePrice:  processing.ParseFloat(cellText(cells, 2)),
			IssueDate:   cellText(cells, 3),
			ListingDate: cellText(cells, 4),
			PERatio:     processing.ParseFloat(cellText(cells, 5)),
			Industry:    industry,
			CreateTime:  c.now(),
		})
	})

	if len(listings) > 0 {
		docs := toAny(listings)
		c.store.BulkWrite(ctx, elasticsearch.IndexNewStocks, docs)
		c.tap.Publish(ctx, elasticsearch.IndexNewStocks, docs)
	}

	c.log.Info("new stock crawl finished", slog.Int("count", len(listings)))
	return listings, nil
}

// CrawlIndustry ingests up to 10 article headlines from the sector page for
// industry. Article bodies are not fetched; Content stays empty.
func (c *Crawler) CrawlIndustry(ctx context.Context, industry string) ([]models.IndustryArticle, error) {
	url := c.src.IndustryURLBase + industry + ".html"
	c.log.Info("crawling industry articles", slog.String("industry", industry), slog.String("url", url))

	doc, err := c.fetch.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("crawl industry %s: %w", industry, err)
	}

	articles := make([]models.IndustryArticle, 0, maxIndustryPieces)

	capped(doc.Find(".news-item"), maxIndustryPieces).Each(func(i int, s *goquery.Selection) {
		titleSel := s.Find(".title")
		title := strings.TrimSpace(titleSel.Text())
		href, _ := titleSel.Attr("href")

		now := c.now()
		articles = append(articles, models.IndustryArticle{
			Title:       title,
			Content:     "",
			Industry:    industry,
			PublishTime: now,
			URL:         href,
			CreateTime:  now,
		})
	})

	if len(articles) > 0 {
		docs := toAny(articles)
		c.store.BulkWrite(ctx, elasticsearch.IndexIndustry, docs)
		c.tap.Publish(ctx, elasticsearch.IndexIndustry, docs)
	}

	c.log.Info("industry crawl finished", slog.String("industry", industry), slog.Int("count", len(articles)))
	return articles, nil
}

func capped(sel *goquery.Selection, n int) *goquery.Selection {
	if sel.Length() > n {
		return sel.Slice(0, n)
	}
	return sel
}

func cellText(cells *goquery.Selection, i int) string {
	return strings.TrimSpace(cells.Eq(i).Text())
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
