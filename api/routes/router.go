package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/merchantpulse/merchantpulse-backend/api/controllers"
	dashboardcontrollers "github.com/merchantpulse/merchantpulse-backend/api/controllers/dashboard"
	"github.com/merchantpulse/merchantpulse-backend/api/middleware"
	"github.com/merchantpulse/merchantpulse-backend/pkg/config"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *prometheus.Registry,
	deps map[string]controllers.Pinger,
	dashboardService dashboardcontrollers.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/health/live", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, logg, deps))

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/dashboard", func(r chi.Router) {
		r.Get("/", dashboardcontrollers.Fetch(dashboardService, logg))
		r.Put("/window", dashboardcontrollers.SetWindow(dashboardService, logg))
		r.Post("/refresh", dashboardcontrollers.Refresh(dashboardService, logg))
		r.Get("/transactions", dashboardcontrollers.ListTransactions(dashboardService, logg))
		r.Post("/filter", dashboardcontrollers.SetFilter(dashboardService, logg))
		r.Get("/stream", dashboardcontrollers.Stream(dashboardService, logg))
	})

	return r
}
