package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/ghcount/internal/config"
	dbRedis "github.com/kailas-cloud/ghcount/internal/db/redis"
	"github.com/kailas-cloud/ghcount/internal/domain"
	logpkg "github.com/kailas-cloud/ghcount/internal/logger"
	"github.com/kailas-cloud/ghcount/internal/metrics"
	"github.com/kailas-cloud/ghcount/internal/stream"
	"github.com/kailas-cloud/ghcount/internal/stream/redisstream"
	chiTransport "github.com/kailas-cloud/ghcount/internal/transport/chi"
	"github.com/kailas-cloud/ghcount/internal/transport/ghcli"
	"github.com/kailas-cloud/ghcount/internal/transport/github"
	"github.com/kailas-cloud/ghcount/internal/usecase/collect"
	"github.com/kailas-cloud/ghcount/internal/usecase/count"
	healthuc "github.com/kailas-cloud/ghcount/internal/usecase/health"
	"github.com/kailas-cloud/ghcount/internal/usecase/retry"
	"github.com/kailas-cloud/ghcount/internal/usecase/schedule"
	"github.com/kailas-cloud/ghcount/internal/usecase/wait"
	"github.com/kailas-cloud/ghcount/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	logger.Info("Starting ghcount collector",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.String("backend", cfg.GitHub.Backend),
		zap.Duration("interval", cfg.Interval()),
		zap.Bool("redis_mirror", cfg.Redis.Enabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()

	if err != nil {
		logger.Error("Collector failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("Collector stopped")
	_ = logger.Sync()
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectorMetrics(reg)
	metrics.RegisterHTTPMetrics(reg)

	api, err := newSearchAPI(ctx, cfg.GitHub, logger)
	if err != nil {
		return err
	}

	sink, err := stream.OpenSink(cfg.Output.Path)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	var writer stream.RecordWriter = stream.NewWriter(sink)

	// Pass a nil interface to health when the mirror is off, not a typed nil *Store.
	var redisCheck healthuc.RedisChecker
	if cfg.Redis.Enabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			_ = writer.Close()
			return fmt.Errorf("create redis store: %w", err)
		}
		defer store.Close()

		timeout := time.Duration(cfg.Redis.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			_ = writer.Close()
			return fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))

		redisCheck = store
		writer = stream.Tee{writer, redisstream.New(store, cfg.Redis.StreamKey, cfg.Redis.MaxLen, logger)}
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Warn("Failed to close output", zap.Error(err))
		}
	}()

	clock := quartz.NewReal()
	counter := count.New(api, logger).WithPerPage(cfg.GitHub.PerPage)
	waiter := wait.New(api, clock, logger)
	orchestrator := retry.New(counter, waiter, logger).WithMaxAttempts(cfg.Collector.MaxAttempts)
	collector := collect.New(orchestrator, writer, cfg.Collector.Fragments, clock, logger)
	scheduler := schedule.New(collector, cfg.Interval(), clock, logger)

	logger.Info("Collector configured",
		zap.Strings("fragments", collector.Fragments()),
		zap.Int("max_attempts", cfg.Collector.MaxAttempts),
		zap.Int("per_page", cfg.GitHub.PerPage),
	)

	if cfg.Interval() <= 0 {
		return scheduler.Start(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scheduler.Start(gctx) })

	if cfg.HTTP.Port > 0 {
		server := chiTransport.NewServer(healthuc.New(redisCheck, cfg.Redis.StreamKey, scheduler), reg, logger)
		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:      server.Router(cfg.HTTP.MetricsTokens),
			ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		}

		g.Go(func() error {
			logger.Info("Starting ops HTTP server", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ops HTTP server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown ops HTTP server: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func newSearchAPI(ctx context.Context, cfg config.GitHubConfig, logger *zap.Logger) (domain.SearchAPI, error) {
	switch cfg.Backend {
	case config.BackendAPI:
		client, err := github.New(ctx, github.Config{
			Token:   cfg.Token,
			BaseURL: cfg.BaseURL,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create github client: %w", err)
		}
		return client, nil
	default:
		return ghcli.New(ghcli.Config{Path: cfg.GHPath, Logger: logger}), nil
	}
}
