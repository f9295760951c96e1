package models

import "time"

// LiveNewsItem is one entry scraped from the live finance feed.
type LiveNewsItem struct {
	Content     string    `json:"content"`
	PublishTime time.Time `json:"publish_time"`
	Source      string    `json:"source"`
	Author      string    `json:"author"`
	CreateTime  time.Time `json:"create_time"`
	Tags        []string  `json:"tags"`
}

// NewStockListing is one row from the new-stock listings table.
// Issue and listing dates stay in the text form they were scraped in.
type NewStockListing struct {
	StockCode   string    `json:"stock_code"`
	StockName   string    `json:"stock_name"`
	IssuePrice  float64   `json:"issue_price"`
	IssueDate   string    `json:"issue_date"`
	ListingDate string    `json:"listing_date"`
	PERatio     float64   `json:"pe_ratio"`
	Industry    string    `json:"industry"`
	CreateTime  time.Time `json:"create_time"`
}

// IndustryArticle is a headline collected from a sector page. The article
// body is not fetched, so Content is usually empty.
type IndustryArticle struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Industry    string    `json:"industry"`
	PublishTime time.Time `json:"publish_time"`
	URL         string    `json:"url"`
	CreateTime  time.Time `json:"create_time"`
}

// AnalysisResult is a derived artifact written by the analyzer. The metrics
// schema depends on AnalysisType.
type AnalysisResult struct {
	AnalysisType string         `json:"analysis_type"`
	Content      string         `json:"content"`
	DataSource   string         `json:"data_source"`
	Metrics      map[string]any `json:"metrics"`
	CreateTime   time.Time      `json:"create_time"`
}

// TradingStrategy is the pre-market strategy artifact.
type TradingStrategy struct {
	Type         string         `json:"type"`
	Strategy     string         `json:"strategy"`
	RiskLevel    string         `json:"risk_level"`
	TargetStocks []string       `json:"target_stocks"`
	Confidence   float64        `json:"confidence"`
	CreateTime   time.Time      `json:"create_time"`
	DataSummary  map[string]int `json:"data_summary"`
}
