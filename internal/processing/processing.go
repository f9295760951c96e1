package processing

import (
	"math"
	"strconv"
	"strings"
)

// MarketKeywords is the fixed tag vocabulary matched against news content.
var MarketKeywords = []string{"涨停", "跌停", "利好", "利空", "重组", "并购", "业绩", "财报"}

// Keyword lists backing the sentiment heuristics. The strategy comparison
// uses a wider list than the opening-news ratios.
var (
	StrategyPositive = []string{"利好", "上涨", "突破", "创新高"}
	StrategyNegative = []string{"利空", "下跌", "破位", "创新低"}
	RatioPositive    = []string{"利好", "上涨", "突破"}
	RatioNegative    = []string{"利空", "下跌", "破位"}
)

// Label is the market sentiment bucket derived from keyword counts.
type Label string

const (
	Bullish Label = "bullish"
	Bearish Label = "bearish"
	Neutral Label = "neutral"
)

// ExtractTags returns the vocabulary keywords contained in content, in
// vocabulary order. Matching is exact substring containment.
func ExtractTags(content string) []string {
	tags := make([]string, 0, len(MarketKeywords))
	for _, kw := range MarketKeywords {
		if strings.Contains(content, kw) {
			tags = append(tags, kw)
		}
	}
	return tags
}

// ContainsAny reports whether content contains at least one of the keywords.
func ContainsAny(content string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(content, kw) {
			return true
		}
	}
	return false
}

// CountMatching counts the items whose content contains at least one keyword.
func CountMatching(contents []string, keywords []string) int {
	count := 0
	for _, c := range contents {
		if ContainsAny(c, keywords) {
			count++
		}
	}
	return count
}

// SentimentLabel applies the asymmetric 1.5x threshold: bullish when positive
// exceeds 1.5x negative, bearish when negative exceeds 1.5x positive, neutral
// otherwise.
func SentimentLabel(positive, negative int) Label {
	switch {
	case float64(positive) > float64(negative)*1.5:
		return Bullish
	case float64(negative) > float64(positive)*1.5:
		return Bearish
	default:
		return Neutral
	}
}

// Ratio returns matching/total rounded to 2 decimal places, and 0.0 for an
// empty population.
func Ratio(matching, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return math.Round(float64(matching)/float64(total)*100) / 100
}

// ParseFloat parses a scraped numeric cell, tolerating thousands separators
// and percent signs. Any parse failure yields 0.0 rather than an error.
func ParseFloat(raw string) float64 {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "%", "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0.0
	}
	return value
}
