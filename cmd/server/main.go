package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appaggregator "main/internal/application/service/aggregator"
	appsession "main/internal/application/service/session"
	apptrading "main/internal/application/service/trading"
	"main/internal/config"
	domaininterfaces "main/internal/domain/interfaces"
	"main/internal/infrastructure/events"
	"main/internal/infrastructure/feed"
	inframarketdata "main/internal/infrastructure/marketdata"
	infrahttp "main/internal/interfaces/http"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	var archive domaininterfaces.CandleArchive
	if cfg.Postgres.DSN != "" {
		repo, err := inframarketdata.NewRepository(cfg.Postgres.DSN)
		if err != nil {
			logger.Fatalf("failed to init candle archive: %v", err)
		}
		defer repo.Close()
		archive = repo
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis unavailable, response cache disabled: %v", err)
			redisClient = nil
		}
	}

	bus := events.New(logger)
	subscribeAlerts(bus, logger)

	engine := apptrading.NewEngine(apptrading.Config{
		StartingBalance:       cfg.Account.StartingBalance,
		WarningThreshold:      cfg.Account.WarningThreshold,
		CommissionPerContract: cfg.Account.CommissionPerContract,
	}, apptrading.NewRandSource(cfg.Feed.Seed), bus, logger)

	session := appsession.NewService(appsession.Config{
		WarmupCandles: cfg.Account.WarmupCandles,
		Speed:         cfg.Account.PlaybackSpeed,
	}, engine, appaggregator.NewService(), archive, bus, logger)

	series, err := buildSource(cfg, logger).Series()
	if err != nil {
		logger.Fatalf("failed to load candle series: %v", err)
	}
	session.Load(series)

	handler := infrahttp.NewHandler(session, redisClient, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: handler,
	}

	go func() {
		logger.Infof("listening on %s", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	session.Pause()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("http shutdown error: %v", err)
	}
	bus.WaitAsync()
}

func buildSource(cfg *config.Config, logger *logrus.Logger) domaininterfaces.CandleSource {
	if cfg.Feed.Source == "csv" {
		return feed.NewCSVSource(cfg.Feed.CSVPath)
	}
	return feed.NewGenerator(feed.GeneratorConfig{
		StartPrice: cfg.Feed.StartPrice,
		Seed:       cfg.Feed.Seed,
	}, logger)
}

// subscribeAlerts surfaces risk events in the service log.
func subscribeAlerts(bus *events.Bus, logger *logrus.Logger) {
	_ = bus.Subscribe(apptrading.TopicMarginWarning, func(ev apptrading.MarginEvent) {
		logger.WithField("margin_available", ev.MarginAvailable).Warn("margin warning")
	})
	_ = bus.Subscribe(apptrading.TopicMarginCalled, func(ev apptrading.MarginEvent) {
		logger.WithField("price", ev.Price).Warn("margin called, positions liquidated")
	})
	_ = bus.Subscribe(apptrading.TopicSessionOver, func(ev apptrading.MarginEvent) {
		logger.WithField("balance", ev.TotalBalance).Info("session over")
	})
}
