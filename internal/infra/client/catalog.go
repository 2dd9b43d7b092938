// Package client holds thin HTTP clients for the financing
// collaborators: the product catalog API and the partner calculation
// gateway.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/knowak/carmarket-financing-go/internal/domain"
	"github.com/knowak/carmarket-financing-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// CatalogClient fetches the financing product catalog.
type CatalogClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewCatalogClient creates a new CatalogClient.
func NewCatalogClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *CatalogClient {
	return &CatalogClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// GetCatalog fetches the full product catalog with retry, circuit
// breaker, and tracing. The catalog is one payload regardless of
// category; callers segment it client-side.
func (c *CatalogClient) GetCatalog(ctx context.Context) (*domain.Catalog, error) {
	ctx, span := tracer.Start(ctx, "CatalogClient.GetCatalog")
	defer span.End()

	var catalog domain.Catalog

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/v1/financing/products", c.baseURL)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("catalog API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&catalog)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &catalog, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "catalog", Err: err}
	}

	span.SetAttributes(attribute.Int("catalog.size", len(catalog.Products)))
	return result.(*domain.Catalog), nil
}
