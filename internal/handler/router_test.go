package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/knowak/carmarket-financing-go/internal/domain"
	"github.com/knowak/carmarket-financing-go/internal/handler"
	"github.com/knowak/carmarket-financing-go/internal/infra/cache"
	"github.com/knowak/carmarket-financing-go/internal/infra/observability"
	"github.com/knowak/carmarket-financing-go/internal/service"

	"go.uber.org/zap"
)

type stubCatalog struct{ catalog *domain.Catalog }

func (s *stubCatalog) GetCatalog(_ context.Context) (*domain.Catalog, error) {
	return s.catalog, nil
}

type stubCalculator struct{ installment float64 }

func (s *stubCalculator) Calculate(_ context.Context, _ *domain.RemoteCalculationRequest) (*domain.RemoteCalculationResponse, error) {
	return &domain.RemoteCalculationResponse{MonthlyInstallment: s.installment, Provider: "BANK"}, nil
}

func newTestRouter() http.Handler {
	catalog := &domain.Catalog{Products: []domain.FinancingProduct{
		{
			ID: "cred-bank", Category: domain.CategoryCredit, Provider: "BANK",
			Currency: "PLN", Priority: 10,
			MinInstallments: 12, MaxInstallments: 96, MaxInitialPayment: 50,
		},
		{
			ID: "cred-own", Category: domain.CategoryCredit, Provider: domain.ProviderOwn,
			Currency: "PLN", Priority: 1, IsDefault: true,
			ReferenceRate: 5, Margin: 2,
			MinInstallments: 6, MaxInstallments: 120, MaxInitialPayment: 90,
		},
	}}

	metrics := observability.NewMetrics()
	svc := service.NewFinancingService(
		&stubCatalog{catalog: catalog},
		&stubCalculator{installment: 1500},
		cache.New[*domain.Catalog](time.Minute),
		cache.New[*service.Session](time.Hour),
		metrics,
		zap.NewNop(),
	)
	return handler.NewRouter(svc, metrics, zap.NewNop())
}

func TestHealthz(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestListProducts(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/financing/products", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var catalog domain.Catalog
	if err := json.NewDecoder(rec.Body).Decode(&catalog); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(catalog.Products) != 2 {
		t.Errorf("expected 2 products, got %d", len(catalog.Products))
	}
}

func TestListProducts_UnknownCategory(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/financing/products?category=BOAT", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestQuote(t *testing.T) {
	router := newTestRouter()

	body, _ := json.Marshal(domain.QuoteRequest{Price: 100000, Category: domain.CategoryCredit})
	req := httptest.NewRequest(http.MethodPost, "/v1/financing/quote", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var offer domain.Offer
	if err := json.NewDecoder(rec.Body).Decode(&offer); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !offer.Available {
		t.Error("expected an available offer")
	}
	if offer.Product.ID != "cred-bank" {
		t.Errorf("expected cred-bank, got %s", offer.Product.ID)
	}
}

func TestQuote_InvalidPrice(t *testing.T) {
	router := newTestRouter()

	body, _ := json.Marshal(domain.QuoteRequest{Price: -1, Category: domain.CategoryCredit})
	req := httptest.NewRequest(http.MethodPost, "/v1/financing/quote", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCategoryOffers_MissingPrice(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/financing/offers", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestRouter()

	body, _ := json.Marshal(domain.SessionRequest{Price: 120000, Category: domain.CategoryCredit})
	req := httptest.NewRequest(http.MethodPost, "/v1/financing/sessions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if created.SessionID == "" {
		t.Fatal("expected a session id")
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/financing/sessions/"+created.SessionID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	updBody := []byte(`{"months": 48}`)
	req = httptest.NewRequest(http.MethodPut, "/v1/financing/sessions/"+created.SessionID+"/parameters", bytes.NewReader(updBody))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated domain.SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if updated.Offer.Parameters.Months != 48 {
		t.Errorf("expected 48 months, got %d", updated.Offer.Parameters.Months)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/financing/sessions/unknown", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSchedule_RemoteProduct(t *testing.T) {
	router := newTestRouter()

	body, _ := json.Marshal(domain.SessionRequest{Price: 120000, Category: domain.CategoryCredit})
	req := httptest.NewRequest(http.MethodPost, "/v1/financing/sessions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created domain.SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}

	// The top-priority product is remote, so no schedule exists.
	req = httptest.NewRequest(http.MethodGet, "/v1/financing/sessions/"+created.SessionID+"/schedule", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestFinancingMetricsEndpoint(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/financing", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var m domain.FinancingMetrics
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
}
