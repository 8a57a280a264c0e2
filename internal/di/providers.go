package di

import (
	"context"
	"fmt"
	"time"

	"TradeYodha/internal/domain/repository"
	domsvc "TradeYodha/internal/domain/service"
	"TradeYodha/internal/handler/api"
	mid "TradeYodha/internal/middleware"
	internalrepo "TradeYodha/internal/repository"
	"TradeYodha/internal/service/cache"
	"TradeYodha/internal/service/llm"
	"TradeYodha/internal/service/polygon"
	"TradeYodha/internal/service/ratelimit"
	"TradeYodha/internal/services/darkpool"
	"TradeYodha/internal/services/flow"
	"TradeYodha/internal/services/gaps"
	"TradeYodha/internal/services/summary"
	"TradeYodha/internal/usecase"
	pkgcache "TradeYodha/pkg/cache"
	pkgch "TradeYodha/pkg/clickhouse"
	"TradeYodha/pkg/config"
	xhttp "TradeYodha/pkg/http"
	pkgkafka "TradeYodha/pkg/kafka"
	"TradeYodha/pkg/logger"
	"TradeYodha/pkg/metrics"
	"TradeYodha/pkg/postgres"
	"TradeYodha/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Version is stamped at build time.
var Version = "dev"

func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideRegistry returns a private registry carrying the Go and process collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

func ProvidePolygonClient(cfg *config.Config, log *logger.Logger) *polygon.Client {
	up := cfg.Upstream
	c := polygon.New(polygon.Config{
		BaseURL:          up.BaseURL,
		APIKey:           up.APIKey,
		UserAgent:        up.UserAgent,
		HTTPTimeout:      up.HTTPTimeout,
		RPS:              up.RPS,
		Burst:            up.Burst,
		MaxFailures:      up.Breaker.MaxFailures,
		OpenTimeout:      up.Breaker.OpenTimeout,
		HalfOpenRequests: up.Breaker.HalfOpenRequests,
	}, log)
	if !c.Configured() {
		log.Warn("POLYGON_API_KEY missing or placeholder; signal endpoints will answer ERR_NOT_CONFIGURED")
	}
	return c
}

// ProvideCacheStore builds the memo backing store selected by cache.backend.
func ProvideCacheStore(cfg *config.Config, log *logger.Logger) (pkgcache.Store, func(), error) {
	cc := cfg.Cache
	if cc.Backend == "memory" {
		mc := pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cc.MemoryMaxSize))
		return mc, func() { _ = mc.Close() }, nil
	}

	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cc.Redis.Addr),
		pkgcache.WithRedisPassword(cc.Redis.Password),
		pkgcache.WithRedisDB(cc.Redis.DB),
		pkgcache.WithRedisPrefix(cc.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	log.Info("cache backend ready", logger.String("backend", cc.Backend), logger.String("addr", cc.Redis.Addr))
	if cc.Backend == "redis" {
		return rc, func() { _ = rc.Close() }, nil
	}
	lc := pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(cc.MemoryMaxSize))
	return lc, func() { _ = lc.Close() }, nil
}

func ProvideMemo(store pkgcache.Store, cfg *config.Config, m repository.Metrics, log *logger.Logger) *cache.Memo {
	return cache.NewMemo(store,
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithComputeTimeout(cfg.Server.WriteTimeout),
		cache.WithMetrics(m),
		cache.WithLogger(log.With(logger.String("component", "memo"))),
	)
}

// ProvidePrintSource returns a nil source when ClickHouse is disabled, which
// keeps /api/darkpool-summary unregistered.
func ProvidePrintSource(cfg *config.Config, log *logger.Logger) (repository.PrintSource, func(), error) {
	ch := cfg.ClickHouse
	if !ch.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(context.Background(),
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	table := ch.Database + "." + ch.PrintsTable

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + ch.Database,
		internalrepo.PrintsTableDDL(table),
	}); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	store, err := internalrepo.NewCHPrintStore(client.DB(), table, log)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	log.Info("clickhouse print store ready", logger.String("table", table))
	return store, func() { _ = client.Close() }, nil
}

func ProvideWatchlistStore(cfg *config.Config, log *logger.Logger) (repository.WatchlistStore, func(), error) {
	pg := cfg.Postgres
	if !pg.Enabled {
		return nil, func() {}, nil
	}
	db, err := postgres.Open(context.Background(), pg.DSN, postgres.WithMaxConnections(pg.MaxOpenConns, 0))
	if err != nil {
		return nil, nil, err
	}
	store, err := internalrepo.NewPGWatchlistStore(db, pg.WatchlistTable, 2*time.Second)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info("postgres watchlist store ready", logger.String("table", pg.WatchlistTable))
	return store, func() { _ = db.Close() }, nil
}

func ProvideSignalPublisher(cfg *config.Config, reg *prometheus.Registry, log *logger.Logger) (repository.SignalPublisher, func(), error) {
	kc := cfg.Kafka
	if !kc.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(kc.Brokers),
		pkgkafka.WithTopic(kc.Topic),
		pkgkafka.WithCompression(kc.Compression),
		pkgkafka.WithRequiredAcks(kc.RequiredAcks),
		pkgkafka.WithMaxAttempts(kc.Producer.MaxAttempts),
		pkgkafka.WithBatchTimeout(kc.Producer.Linger),
		pkgkafka.WithWriteTimeout(kc.Producer.WriteTimeout),
		pkgkafka.WithAsync(kc.Producer.Async),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaSignalPublisher(producer, "tradeyodha-"+cfg.Environment)
	log.Info("kafka signal publisher ready", logger.String("topic", kc.Topic), logger.Strings("brokers", kc.Brokers))
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Warn("kafka producer close error", logger.Error(err))
		}
	}, nil
}

func ProvideSnapshotFetcher(p *polygon.Client, prints repository.PrintSource, cfg *config.Config, m repository.Metrics, log *logger.Logger) *usecase.SnapshotFetcher {
	opts := []usecase.FetcherOption{
		usecase.WithMaxInFlight(cfg.Upstream.MaxInFlight),
		usecase.WithCallTimeout(cfg.Upstream.CallTimeout),
		usecase.WithFetcherMetrics(m),
	}
	if prints != nil {
		opts = append(opts, usecase.WithPrintSource(prints, cfg.Engine.PrintLimit))
	}
	return usecase.NewSnapshotFetcher(p, log, opts...)
}

func ProvideFlowAggregator(cfg *config.Config) *flow.Aggregator {
	return flow.New(flow.WithOptions(flow.Options{
		UnusualPremium: cfg.Engine.UnusualPremium,
		BullishRatio:   cfg.Engine.BullishRatio,
		BearishRatio:   cfg.Engine.BearishRatio,
		TopN:           cfg.Engine.TopTrades,
	}))
}

func ProvideDarkPoolClassifier(cfg *config.Config) *darkpool.Classifier {
	return darkpool.New(darkpool.WithOptions(darkpool.Options{
		PriceTick:     cfg.Engine.PriceTick,
		TopLevels:     cfg.Engine.TopLevels,
		MinLevelValue: cfg.Engine.MinLevelValue,
		Dominance:     cfg.Engine.RegimeDominance,
		SizeSkew:      cfg.Engine.RegimeSizeSkew,
	}))
}

func ProvideGapRanker(cfg *config.Config) *gaps.Ranker {
	return gaps.New(gaps.WithMaxK(cfg.Engine.MaxTopMovers))
}

func ProvideFormatter(cfg *config.Config) *summary.Formatter {
	return summary.New(summary.WithMaxBytes(cfg.Engine.SummaryMaxBytes))
}

func ProvideSignalEngine(
	f *usecase.SnapshotFetcher,
	fa *flow.Aggregator,
	dc *darkpool.Classifier,
	gr *gaps.Ranker,
	memo *cache.Memo,
	pub repository.SignalPublisher,
	cfg *config.Config,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.SignalEngine {
	opts := []usecase.EngineOption{
		usecase.WithUniverse(cfg.Engine.MoversUniverse),
		usecase.WithEngineMetrics(m),
	}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	return usecase.NewSignalEngine(f, fa, dc, gr, memo, log, opts...)
}

func ProvideScopeResolver(store repository.WatchlistStore, cfg *config.Config, log *logger.Logger) *usecase.ScopeResolver {
	return usecase.NewScopeResolver(store, cfg.Engine.DefaultWatchlist, cfg.Upstream.MaxTickers, log)
}

// ProvideInsightGenerator returns nil without an API key; InsightService then
// always serves the fallback.
func ProvideInsightGenerator(cfg *config.Config, log *logger.Logger) domsvc.InsightGenerator {
	ic := cfg.Insight
	gen, err := llm.NewOpenAIGenerator(llm.Config{
		APIKey:    ic.APIKey,
		BaseURL:   ic.BaseURL,
		Model:     ic.Model,
		MaxTokens: ic.MaxTokens,
		Timeout:   ic.Timeout,
	}, log)
	if err != nil {
		log.Info("insight generator disabled", logger.Error(err))
		return nil
	}
	return gen
}

func ProvideInsightService(f *summary.Formatter, gen domsvc.InsightGenerator, cfg *config.Config, m repository.Metrics, log *logger.Logger) *usecase.InsightService {
	return usecase.NewInsightService(f, gen, log,
		usecase.WithFallback(cfg.Insight.Fallback),
		usecase.WithInsightMetrics(m),
	)
}

func ProvideSnapshotRunner(e *usecase.SignalEngine, s *usecase.ScopeResolver, i *usecase.InsightService, cfg *config.Config, log *logger.Logger) *usecase.SnapshotRunner {
	return usecase.NewSnapshotRunner(e, s, i, cfg.Engine.DarkPoolWindow, cfg.Engine.TopMovers, log)
}

func ProvideSignalsHandler(e *usecase.SignalEngine, s *usecase.ScopeResolver, i *usecase.InsightService, cfg *config.Config, log *logger.Logger) *api.SignalsHandler {
	rl := cfg.Server.RateLimit
	limiter := ratelimit.New(rl.RPS, rl.Burst)
	return api.NewSignalsHandler(e, s, i, log,
		api.WithGroupMiddleware(mid.RateLimit(limiter, mid.ClientKey, log)),
		api.WithHealthInfo(api.HealthInfo{Version: Version, CacheBackend: cfg.Cache.Backend}),
	)
}

func ProvideHTTPServer(h *api.SignalsHandler, cfg *config.Config, reg *prometheus.Registry, log *logger.Logger) *xhttp.Server {
	sc := cfg.Server
	opts := []xhttp.ServerOption{
		xhttp.WithHost(sc.Host),
		xhttp.WithPort(sc.Port),
		xhttp.WithTimeouts(sc.ReadTimeout, sc.WriteTimeout, sc.ShutdownTimeout),
		xhttp.WithCORS(sc.CORS),
		xhttp.WithCORSHeaders(api.HeaderUserID),
		xhttp.WithCompression(sc.Compression),
		xhttp.WithLogger(log),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, reg, reg))
	}
	return xhttp.NewServer(h, opts...)
}

func ProvideApp(srv *xhttp.Server, cfg *config.Config, log *logger.Logger) *server.App {
	return server.New(srv, log, cfg.Server.ShutdownTimeout)
}
