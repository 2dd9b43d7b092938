package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/knowak/carmarket-financing-go/internal/domain"
	"github.com/knowak/carmarket-financing-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// CalculatorClient calls the partner calculation gateway for products
// whose installments are priced remotely.
//
// Calculation calls are deliberately NOT retried: a failure marks the
// product as failed and the selection cascade moves to the next
// candidate. The circuit breaker still shields a flapping gateway, and
// a bulkhead caps concurrent in-flight calculations.
type CalculatorClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
}

// NewCalculatorClient creates a new CalculatorClient.
func NewCalculatorClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, maxConcurrency int) *CalculatorClient {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &CalculatorClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(maxConcurrency),
	}
}

// Calculate asks the provider behind req.ProductID for a monthly
// installment. Non-2xx, transport errors, malformed bodies and
// non-positive installments all count as calculation failures.
func (c *CalculatorClient) Calculate(ctx context.Context, req *domain.RemoteCalculationRequest) (*domain.RemoteCalculationResponse, error) {
	ctx, span := tracer.Start(ctx, "CalculatorClient.Calculate")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", req.ProductID))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrExternalService{Service: "calculator", Err: err}
	}
	defer c.bulkhead.Release()

	var calcResp domain.RemoteCalculationResponse

	result, err := c.cb.Execute(func() (any, error) {
		body, err := json.Marshal(req)
		if err != nil {
			return nil, err
		}

		url := fmt.Sprintf("%s/v1/financing/calculations", c.baseURL)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("calculator API returned status %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(&calcResp); err != nil {
			return nil, fmt.Errorf("calculator API returned malformed body: %w", err)
		}
		if calcResp.MonthlyInstallment <= 0 {
			return nil, fmt.Errorf("calculator API returned non-positive installment %f", calcResp.MonthlyInstallment)
		}
		return &calcResp, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "calculator", Err: err}
	}

	return result.(*domain.RemoteCalculationResponse), nil
}
