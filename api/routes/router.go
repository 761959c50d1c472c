package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/diallo-dev/coffrefort-backend/api/controllers"
	"github.com/diallo-dev/coffrefort-backend/api/middleware"
	"github.com/diallo-dev/coffrefort-backend/internal/dashboard"
	"github.com/diallo-dev/coffrefort-backend/internal/inventories"
	"github.com/diallo-dev/coffrefort-backend/internal/ledger"
	"github.com/diallo-dev/coffrefort-backend/internal/movements"
	"github.com/diallo-dev/coffrefort-backend/internal/safes"
	"github.com/diallo-dev/coffrefort-backend/pkg/config"
	"github.com/diallo-dev/coffrefort-backend/pkg/logger"
)

// Deps bundles everything the router needs. Pingers may be nil when the
// backing dependency is not part of the deployment.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	Registry    *prometheus.Registry

	Safes       safes.Service
	Movements   movements.Service
	Inventories inventories.Service
	Ledger      ledger.Service
	Dashboard   dashboard.Service
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(d.Logger),
		middleware.RequestID(d.Logger),
		middleware.Logging(d.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, d.Logger, d.DBPinger, d.RedisPinger))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Principal(d.Logger))

		r.Route("/safes", func(r chi.Router) {
			r.Post("/", controllers.SafeCreate(d.Safes, d.Logger))
			r.Get("/", controllers.SafeList(d.Safes, d.Logger))

			r.Route("/{safeID}", func(r chi.Router) {
				r.Get("/", controllers.SafeGet(d.Safes, d.Logger))
				r.Put("/", controllers.SafeUpdate(d.Safes, d.Logger))
				r.Delete("/", controllers.SafeDelete(d.Safes, d.Logger))
				r.Get("/balance", controllers.SafeBalance(d.Safes, d.Ledger, d.Logger))

				r.Post("/movements", controllers.MovementCreate(d.Movements, d.Logger))
				r.Get("/movements", controllers.MovementList(d.Movements, d.Logger))

				r.Post("/inventories", controllers.InventoryCreate(d.Inventories, d.Logger))
				r.Get("/inventories", controllers.InventoryList(d.Inventories, d.Logger))
			})
		})

		r.Route("/movements/{movementID}", func(r chi.Router) {
			r.Get("/", controllers.MovementGet(d.Movements, d.Logger))
			r.Put("/", controllers.MovementUpdate(d.Movements, d.Logger))
			r.Delete("/", controllers.MovementDelete(d.Movements, d.Logger))
		})

		r.Get("/inventories/{inventoryID}", controllers.InventoryGet(d.Inventories, d.Logger))

		r.Get("/dashboard", controllers.Dashboard(d.Dashboard, d.Logger))
	})

	return r
}
