package elasticsearch

// Index names for the five fixed collections.
const (
	IndexLiveNews   = "sina_live_data"
	IndexNewStocks  = "eastmoney_newstock_data"
	IndexIndustry   = "eastmoney_industry_data"
	IndexAnalysis   = "analysis_results"
	IndexStrategies = "trading_strategies"
)

// indexDefinitions maps each index to its mapping body. Definitions are
// created once at startup and never altered at runtime.
var indexDefinitions = map[string]map[string]any{
	IndexLiveNews: {
		"mappings": map[string]any{
			"properties": map[string]any{
				"content":      map[string]any{"type": "text", "analyzer": "standard"},
				"publish_time": map[string]any{"type": "date"},
				"source":       map[string]any{"type": "keyword"},
				"author":       map[string]any{"type": "keyword"},
				"create_time":  map[string]any{"type": "date"},
				"tags":         map[string]any{"type": "keyword"},
			},
		},
	},
	IndexNewStocks: {
		"mappings": map[string]any{
			"properties": map[string]any{
				"stock_code":   map[string]any{"type": "keyword"},
				"stock_name":   map[string]any{"type": "text"},
				"issue_price":  map[string]any{"type": "float"},
				"issue_date":   map[string]any{"type": "date"},
				"listing_date": map[string]any{"type": "date"},
				"pe_ratio":     map[string]any{"type": "float"},
				"industry":     map[string]any{"type": "keyword"},
				"create_time":  map[string]any{"type": "date"},
			},
		},
	},
	IndexIndustry: {
		"mappings": map[string]any{
			"properties": map[string]any{
				"title":        map[string]any{"type": "text"},
				"content":      map[string]any{"type": "text"},
				"industry":     map[string]any{"type": "keyword"},
				"publish_time": map[string]any{"type": "date"},
				"url":          map[string]any{"type": "keyword"},
				"create_time":  map[string]any{"type": "date"},
			},
		},
	},
	IndexAnalysis: {
		"mappings": map[string]any{
			"properties": map[string]any{
				"analysis_type": map[string]any{"type": "keyword"},
				"content":       map[string]any{"type": "text"},
				"data_source":   map[string]any{"type": "keyword"},
				"metrics":       map[string]any{"type": "object"},
				"create_time":   map[string]any{"type": "date"},
			},
		},
	},
	IndexStrategies: {
		"mappings": map[string]any{
			"properties": map[string]any{
				"type":          map[string]any{"type": "keyword"},
				"strategy":      map[string]any{"type": "text"},
				"risk_level":    map[string]any{"type": "keyword"},
				"target_stocks": map[string]any{"type": "keyword"},
				"confidence":    map[string]any{"type": "float"},
				"create_time":   map[string]any{"type": "date"},
			},
		},
	},
}

// IndexNames lists every managed index in a stable order.
func IndexNames() []string {
	return []string{IndexLiveNews, IndexNewStocks, IndexIndustry, IndexAnalysis, IndexStrategies}
}
