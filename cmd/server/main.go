package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinesignal/db"
	"github.com/Clark-Hu/cinesignal/internal/app"
	"github.com/Clark-Hu/cinesignal/internal/config"
	"github.com/Clark-Hu/cinesignal/internal/feed"
	httpserver "github.com/Clark-Hu/cinesignal/internal/http"
	"github.com/Clark-Hu/cinesignal/internal/logging"
	"github.com/Clark-Hu/cinesignal/internal/repository"
	"github.com/Clark-Hu/cinesignal/internal/repository/memory"
	"github.com/Clark-Hu/cinesignal/internal/store"
	"github.com/Clark-Hu/cinesignal/internal/telemetry"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New(logging.Config{})
		bootLogger.Fatal().Err(err).Msg("config error")
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}).
		With().Str("service", "cinesignal").Logger()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "cinesignal",
		ServiceVersion: version,
		Exporter:       cfg.TraceExporter,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	repo, health, closeStore := openRepository(ctx, cfg, logger)
	defer closeStore()

	sink, closeSink := buildSink(cfg, repo, logger)
	defer closeSink()

	svc := app.New(repo, sink, app.Options{
		PopularDefaultCount: cfg.PopularDefaultCount,
		Logger:              logger,
	})
	server := httpserver.New(cfg, svc, health, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

// openRepository selects the storage backend named by STORAGE_BACKEND.
func openRepository(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*repository.Repository, httpserver.HealthFunc, func()) {
	if cfg.StorageBackend == config.BackendMemory {
		logger.Warn().Msg("using in-memory storage; data is lost on exit")
		return memory.NewRepository(), nil, func() {}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := st.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		logger.Warn().Err(err).Msg("register pool metrics")
	}
	if cfg.DBMigrate {
		if err := st.Migrate(dbCtx, db.Migrations, "migrations"); err != nil {
			st.Close()
			logger.Fatal().Err(err).Msg("migrate database")
		}
	}
	return repository.New(st), st.HealthCheck, st.Close
}

// buildSink assembles the feed sink named by FEED_SINK.
func buildSink(cfg config.Config, repo *repository.Repository, logger zerolog.Logger) (feed.Sink, func()) {
	storeSink := feed.NewStoreSink(repo.Feed)

	switch cfg.FeedSink {
	case config.FeedSinkNone:
		return feed.Discard{}, func() {}
	case config.FeedSinkStore:
		return storeSink, func() {}
	}

	publisher, err := feed.NewNATSPublisher(feed.NATSOptions{
		URL:       cfg.NATSURL,
		JetStream: cfg.NATSJetStream,
	}, logging.NewWatermillAdapter(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("connect feed broker")
	}
	broker := feed.NewBrokerSink(publisher, feed.BrokerOptions{
		Topic:  cfg.FeedTopic,
		Logger: logger,
	})
	closeBroker := func() {
		if err := broker.Close(); err != nil {
			logger.Warn().Err(err).Msg("close feed broker")
		}
	}

	if cfg.FeedSink == config.FeedSinkBoth {
		return feed.Fanout{storeSink, broker}, closeBroker
	}
	return broker, closeBroker
}
