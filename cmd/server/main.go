package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/finpulse/finance-radar/internal/analyzer"
	"github.com/finpulse/finance-radar/internal/api"
	"github.com/finpulse/finance-radar/internal/config"
	"github.com/finpulse/finance-radar/internal/crawler"
	"github.com/finpulse/finance-radar/internal/dedupe"
	"github.com/finpulse/finance-radar/internal/elasticsearch"
	"github.com/finpulse/finance-radar/internal/fetcher"
	"github.com/finpulse/finance-radar/internal/logger"
	"github.com/finpulse/finance-radar/internal/scheduler"
	"github.com/finpulse/finance-radar/internal/stream"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New("finance-radar", logger.FileOptions{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Error("load timezone", slog.String("timezone", cfg.Timezone), slog.Any("err", err))
		os.Exit(1)
	}

	gateway, err := elasticsearch.New(cfg.ElasticsearchAddr, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Store connectivity at startup is the one fatal failure class.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	connected := gateway.Ping(pingCtx)
	cancel()
	if !connected {
		log.Error("elasticsearch unreachable", slog.String("addr", cfg.ElasticsearchAddr))
		os.Exit(1)
	}
	log.Info("connected to elasticsearch", slog.String("addr", cfg.ElasticsearchAddr))

	// Schema runs exactly once, before the scheduler and the API start.
	gateway.EnsureSchema(ctx)

	var tap *stream.Publisher
	if cfg.StreamEnabled() {
		tap = stream.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer tap.Close()
		log.Info("stream tap enabled", slog.String("topic", cfg.KafkaTopic))
	}

	pages := fetcher.NewHTTP(cfg.UserAgent, cfg.FetchTimeout)
	seen := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	crawl := crawler.New(gateway, pages, seen, tap, crawler.Sources{
		NewsFeedURL:     cfg.NewsFeedURL,
		ListingsURL:     cfg.ListingsURL,
		IndustryURLBase: cfg.IndustryURLBase,
	}, log)

	analyze := analyzer.New(gateway, log)

	sched := scheduler.New(loc, log)
	registerJobs(sched, crawl, analyze)
	go sched.Start(ctx)

	srv := api.NewServer(gateway, crawl, analyze, cfg.SearchDefaultSize, cfg.SearchMaxSize, log)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      3 * time.Minute,
	}

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

// registerJobs installs the six fixed pipeline jobs: five analysis routines
// on daily wall-clock triggers plus the hourly news crawl.
func registerJobs(sched *scheduler.Scheduler, crawl *crawler.Crawler, analyze *analyzer.Analyzer) {
	sched.Register(scheduler.Job{
		ID:      "pre_market_strategy",
		Trigger: scheduler.Daily(8, 0),
		Run: func(ctx context.Context) error {
			_, err := analyze.PreMarketStrategy(ctx)
			return err
		},
	})
	sched.Register(scheduler.Job{
		ID:      "opening_news",
		Trigger: scheduler.Daily(9, 30),
		Run: func(ctx context.Context) error {
			_, err := analyze.OpeningNews(ctx)
			return err
		},
	})
	sched.Register(scheduler.Job{
		ID:      "dragon_tiger_list",
		Trigger: scheduler.Daily(10, 0),
		Run: func(ctx context.Context) error {
			_, err := analyze.DragonTigerList(ctx)
			return err
		},
	})
	sched.Register(scheduler.Job{
		ID:      "northbound_capital",
		Trigger: scheduler.Daily(11, 0),
		Run: func(ctx context.Context) error {
			_, err := analyze.NorthboundCapital(ctx)
			return err
		},
	})
	sched.Register(scheduler.Job{
		ID:      "closing_summary",
		Trigger: scheduler.Daily(15, 0),
		Run: func(ctx context.Context) error {
			_, err := analyze.ClosingSummary(ctx)
			return err
		},
	})
	sched.Register(scheduler.Job{
		ID:      "crawl_sina_hourly",
		Trigger: scheduler.Hourly(0),
		Run: func(ctx context.Context) error {
			_, err := crawl.CrawlLiveNews(ctx)
			return err
		},
	})
}
