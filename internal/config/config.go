package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server holds configuration for the single pipeline binary.
type Server struct {
	ElasticsearchAddr string
	BindAddr          string
	Timezone          string

	UserAgent    string
	FetchTimeout time.Duration

	NewsFeedURL     string
	ListingsURL     string
	IndustryURLBase string

	SearchDefaultSize int
	SearchMaxSize     int

	DedupeCapacity int
	DedupeTTL      time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// Load builds a Server config from environment variables.
func Load() (*Server, error) {
	c := &Server{
		ElasticsearchAddr: getEnv("ELASTICSEARCH_ADDR", "http://localhost:9200"),
		BindAddr:          getEnv("API_BIND_ADDR", "0.0.0.0:5000"),
		Timezone:          getEnv("SCHEDULER_TIMEZONE", "Asia/Shanghai"),

		UserAgent:    getEnv("CRAWL_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		FetchTimeout: getDuration("CRAWL_FETCH_TIMEOUT", "10s"),

		NewsFeedURL:     getEnv("NEWS_FEED_URL", "https://finance.sina.com.cn/7x24/"),
		ListingsURL:     getEnv("LISTINGS_URL", "http://data.eastmoney.com/xg/xg/default.html"),
		IndustryURLBase: getEnv("INDUSTRY_URL_BASE", "http://finance.eastmoney.com/a/"),

		SearchDefaultSize: getInt("SEARCH_DEFAULT_SIZE", 10),
		SearchMaxSize:     getInt("SEARCH_MAX_SIZE", 1000),

		DedupeCapacity: getInt("DEDUPE_CAPACITY", 20000),
		DedupeTTL:      getDuration("DEDUPE_TTL", "24h"),

		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "finance_docs_raw"),

		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getInt("LOG_MAX_AGE_DAYS", 30),
	}

	if c.BindAddr == "" {
		return nil, fmt.Errorf("API_BIND_ADDR must not be empty")
	}
	if c.FetchTimeout <= 0 {
		return nil, fmt.Errorf("CRAWL_FETCH_TIMEOUT must be positive")
	}
	if c.SearchDefaultSize <= 0 {
		return nil, fmt.Errorf("SEARCH_DEFAULT_SIZE must be positive")
	}
	if c.SearchMaxSize < c.SearchDefaultSize {
		return nil, fmt.Errorf("SEARCH_MAX_SIZE cannot be below SEARCH_DEFAULT_SIZE")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("DEDUPE_CAPACITY must be positive")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC must be set when KAFKA_BROKERS is set")
	}

	return c, nil
}

// StreamEnabled reports whether the raw-documents Kafka tap is configured.
func (c *Server) StreamEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
