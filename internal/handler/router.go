package handler

import (
	"net/http"
	"time"

	"github.com/knowak/carmarket-financing-go/internal/domain"
	"github.com/knowak/carmarket-financing-go/internal/infra/observability"
	"github.com/knowak/carmarket-financing-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract consumed by the storefront financing
// widget.
func NewRouter(svc *service.FinancingService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Catalog
		// GET /v1/financing/products
		// =============================================
		r.Get("/financing/products", listProductsHandler(svc, logger))

		// =============================================
		// 2. Offers
		// POST /v1/financing/quote
		// GET  /v1/financing/offers
		// =============================================
		r.Post("/financing/quote", quoteHandler(svc, logger))
		r.Get("/financing/offers", categoryOffersHandler(svc, logger))

		// =============================================
		// 3. Sessions
		// =============================================
		r.Post("/financing/sessions", createSessionHandler(svc, logger))
		r.Get("/financing/sessions/{sessionId}", getSessionHandler(svc, logger))
		r.Put("/financing/sessions/{sessionId}/parameters", updateParametersHandler(svc, logger))
		r.Get("/financing/sessions/{sessionId}/schedule", scheduleHandler(svc, logger))

		// =============================================
		// 4. Metrics
		// GET /v1/metrics/financing
		// =============================================
		r.Get("/metrics/financing", financingMetricsHandler(svc, logger))
	})

	return r
}

// ============================================================
// Probes
// ============================================================

func healthzHandler(svc *service.FinancingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "financing-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		start := time.Now()
		_, err := svc.GetCatalog(ctx)
		latency := time.Since(start).Milliseconds()
		status := "healthy"
		if err != nil {
			status = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name: "catalog", Status: status, LatencyMs: latency, LastChecked: now,
		})

		overall := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
