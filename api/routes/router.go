package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bilsportlisens/lisensbutikk-backend/api/controllers"
	"github.com/bilsportlisens/lisensbutikk-backend/api/middleware"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/catalog"
	checkoutsvc "github.com/bilsportlisens/lisensbutikk-backend/internal/checkout"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/clubs"
	ordersvc "github.com/bilsportlisens/lisensbutikk-backend/internal/orders"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/config"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
	pkgredis "github.com/bilsportlisens/lisensbutikk-backend/pkg/redis"
)

// RouterParams collect everything the HTTP surface depends on.
type RouterParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DBPinger         controllers.Pinger
	RedisPinger      controllers.Pinger
	IdempotencyStore pkgredis.IdempotencyStore
	MetricsGatherer  prometheus.Gatherer

	Catalog  catalog.Service
	Clubs    clubs.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.BaseURL),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DBPinger, params.RedisPinger))
	})

	if params.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/licenses", func(r chi.Router) {
			r.Get("/", controllers.LicenseList(params.Catalog, logg))
			r.Get("/categories", controllers.LicenseCategories(params.Catalog, logg))
			r.Get("/subtypes", controllers.LicenseSubTypes(params.Catalog, logg))
			r.Get("/{licenseId}", controllers.LicenseDetail(params.Catalog, logg))
		})

		r.Get("/clubs", controllers.ClubList(params.Clubs, logg))

		r.Route("/payments", func(r chi.Router) {
			r.With(middleware.Idempotency(params.IdempotencyStore, logg)).
				Post("/", controllers.PaymentCreate(params.Checkout, logg))
			r.Get("/verify", controllers.PaymentVerify(params.Checkout, logg))
			r.Get("/receipt/{orderRef}", controllers.PaymentReceipt(params.Orders, logg))
		})

		r.Get("/orders/{orderRef}", controllers.OrderDetail(params.Orders, logg))
	})

	return r
}
