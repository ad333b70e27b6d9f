package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bilsportlisens/lisensbutikk-backend/internal/catalog"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/checkout"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/fulfillment"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/orders"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/sweep"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/config"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/metrics"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/migrate"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/nexi"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sweeper"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sweeper"

	logg = logger.New(logger.Options{
		ServiceName: "sweeper",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := nexi.NewClient(context.Background(), cfg.Nexi, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	mailer, err := fulfillment.NewMailer(cfg.Sendgrid, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create receipt mailer", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())

	dispatcher, err := fulfillment.NewDispatcher(ordersRepo, mailer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create receipt dispatcher", err)
		os.Exit(1)
	}

	metricsRegistry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(metricsRegistry)
	jobMetrics := metrics.NewJobMetrics(metricsRegistry)

	checkoutService, err := checkout.NewService(
		dbClient,
		ordersRepo,
		catalogRepo,
		gateway,
		dispatcher,
		checkoutMetrics,
		logg,
		cfg.App.BaseURL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	pendingJob, err := sweep.NewPendingOrdersJob(sweep.PendingOrdersJobParams{
		Logger:    logg,
		Reader:    ordersRepo,
		Verifier:  checkoutService,
		TTL:       cfg.Sweep.PendingOrderTTL,
		BatchSize: cfg.Sweep.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pending orders job", err)
		os.Exit(1)
	}

	lock, err := sweep.NewRedisLock(redisClient, lockName(cfg.App.Env), cfg.Sweep.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	service, err := sweep.NewService(sweep.ServiceParams{
		Logger:   logg,
		Registry: sweep.NewRegistry(pendingJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Sweep.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting sweeper")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sweeper stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sweeper shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("pending-orders:%s", env)
}
