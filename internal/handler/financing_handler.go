package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/knowak/carmarket-financing-go/internal/domain"
	"github.com/knowak/carmarket-financing-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 1. Catalog — GET /v1/financing/products
// ============================================================

func listProductsHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financing/products")
		defer span.End()

		catalog, err := svc.GetCatalog(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("catalog.size", len(catalog.Products)))

		if cat := r.URL.Query().Get("category"); cat != "" {
			category := domain.Category(cat)
			if !category.Valid() {
				writeError(w, http.StatusBadRequest, "unknown category: "+cat)
				return
			}
			writeJSON(w, http.StatusOK, domain.Catalog{Products: catalog.ByCategory(category)})
			return
		}
		writeJSON(w, http.StatusOK, catalog)
	}
}

// ============================================================
// 2. Offers — POST /v1/financing/quote, GET /v1/financing/offers
// ============================================================

func quoteHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/financing/quote")
		defer span.End()

		var req domain.QuoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(
			attribute.String("financing.category", string(req.Category)),
			attribute.Float64("financing.price", req.Price),
		)

		offer, err := svc.Quote(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, offer)
	}
}

// categoryOffersHandler resolves one offer per category for the tabbed
// widget. Price is required; discount and vehicle data are optional
// query parameters.
func categoryOffersHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financing/offers")
		defer span.End()

		price, err := strconv.ParseFloat(r.URL.Query().Get("price"), 64)
		if err != nil || price <= 0 {
			writeError(w, http.StatusBadRequest, "price must be a positive number")
			return
		}

		var offer domain.SpecialOffer
		if v := r.URL.Query().Get("discountPercent"); v != "" {
			d, err := strconv.ParseFloat(v, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid discountPercent")
				return
			}
			offer.DiscountPercent = &d
		}
		if v := r.URL.Query().Get("initialPayment"); v != "" {
			ip, err := strconv.ParseFloat(v, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid initialPayment")
				return
			}
			offer.InitialPayment = ip
		}

		var vehicle domain.VehicleInfo
		if v := r.URL.Query().Get("manufacturingYear"); v != "" {
			if y, err := strconv.Atoi(v); err == nil {
				vehicle.ManufacturingYear = y
			}
		}
		if v := r.URL.Query().Get("mileageKm"); v != "" {
			if km, err := strconv.Atoi(v); err == nil {
				vehicle.MileageKm = km
			}
		}

		offers, err := svc.OffersByCategory(ctx, price, offer, vehicle)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"offers": offers})
	}
}

// ============================================================
// 3. Sessions
// ============================================================

func createSessionHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/financing/sessions")
		defer span.End()

		var req domain.SessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.CreateSession(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("financing.session_id", resp.SessionID))
		writeJSON(w, http.StatusCreated, resp)
	}
}

func getSessionHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financing/sessions/{sessionId}")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		resp, err := svc.GetSession(ctx, sessionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateParametersHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/financing/sessions/{sessionId}/parameters")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		var upd domain.ParameterUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.UpdateParameters(ctx, sessionID, &upd)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func scheduleHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/financing/sessions/{sessionId}/schedule")
		defer span.End()

		sessionID := chi.URLParam(r, "sessionId")
		resp, err := svc.Schedule(ctx, sessionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// 4. Metrics — GET /v1/metrics/financing
// ============================================================

func financingMetricsHandler(svc *service.FinancingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := svc.GetFinancingMetrics(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}
