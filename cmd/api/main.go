package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bilsportlisens/lisensbutikk-backend/api/routes"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/catalog"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/checkout"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/clubs"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/fulfillment"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/orders"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/config"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/metrics"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/migrate"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/nexi"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
	clubsRepo := clubs.NewRepository(dbClient.DB())

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	clubsService, err := clubs.NewService(clubsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create clubs service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	dispatcher, err := fulfillment.NewDispatcher(ordersRepo, mailer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create receipt dispatcher", err)
		os.Exit(1)
	}

	metricsRegistry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(metricsRegistry)

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

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:           cfg,
			Logger:           logg,
			DBPinger:         dbClient,
			RedisPinger:      redisClient,
			IdempotencyStore: redisClient,
			MetricsGatherer:  metricsRegistry,
			Catalog:          catalogService,
			Clubs:            clubsService,
			Checkout:         checkoutService,
			Orders:           ordersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
