package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/88clipon/saleor/internal/typeahead/cache"
	"github.com/88clipon/saleor/internal/typeahead/consumer"
	"github.com/88clipon/saleor/internal/typeahead/handler"
	"github.com/88clipon/saleor/internal/typeahead/query"
	"github.com/88clipon/saleor/internal/typeahead/querycache"
	"github.com/88clipon/saleor/internal/typeahead/source"
	"github.com/88clipon/saleor/pkg/config"
	"github.com/88clipon/saleor/pkg/health"
	"github.com/88clipon/saleor/pkg/kafka"
	"github.com/88clipon/saleor/pkg/logger"
	"github.com/88clipon/saleor/pkg/metrics"
	"github.com/88clipon/saleor/pkg/middleware"
	"github.com/88clipon/saleor/pkg/postgres"
	pkgredis "github.com/88clipon/saleor/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting typeahead service", "port", cfg.Server.Port, "rebuild_ttl", cfg.Index.RebuildTTL)

	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to catalog database", "error", err)
		os.Exit(1)
	}
	defer pgClient.Close()
	slog.Info("catalog database connected", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)

	m := metrics.New()
	catalog := source.NewPostgres(pgClient)
	manager := cache.New(catalog, cfg.Index.RebuildTTL, m)
	engine := query.New(manager, cfg.Index.MinPrefixLength)

	var resultCache *querycache.ResultCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, result caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		resultCache = querycache.New(redisClient, cfg.Redis.CacheTTL)
		slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Index.WarmOnStart {
		go func() {
			if _, err := manager.Rebuild(ctx, true); err != nil {
				slog.Warn("initial index build failed, will retry on first query", "error", err)
			}
		}()
	}

	catalogConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CatalogEvents,
		consumer.Handler(&invalidateAll{manager: manager, results: resultCache}))
	go func() {
		if err := catalogConsumer.Start(ctx); err != nil {
			slog.Error("catalog consumer stopped", "error", err)
		}
	}()

	invalidateConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate,
		consumer.Handler(&invalidateAll{manager: manager, results: resultCache}))
	go func() {
		if err := invalidateConsumer.Start(ctx); err != nil {
			slog.Error("invalidate consumer stopped", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := pgClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if !manager.Loaded() {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no snapshot yet"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(engine, manager, resultCache, m, cfg.Index.DefaultLimit, cfg.Index.MaxLimit)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index/stats", h.Stats)
	mux.HandleFunc("POST /api/v1/index/invalidate", h.Invalidate)
	mux.HandleFunc("POST /api/v1/index/rebuild", h.Rebuild)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("typeahead service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("typeahead service stopped")
}

// invalidateAll marks the index stale and drops cached results in one step.
type invalidateAll struct {
	manager *cache.Manager
	results *querycache.ResultCache
}

func (i *invalidateAll) Invalidate(origin string) {
	i.manager.Invalidate(origin)
	if i.results == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := i.results.Invalidate(ctx); err != nil {
		slog.Error("result cache flush failed", "error", err)
	}
}
