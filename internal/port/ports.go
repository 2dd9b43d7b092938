// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/knowak/carmarket-financing-go/internal/domain"
)

// CatalogFetcher retrieves the financing product catalog.
type CatalogFetcher interface {
	GetCatalog(ctx context.Context) (*domain.Catalog, error)
}

// InstallmentCalculator asks a partner provider for a monthly
// installment. Any error is a calculation failure and feeds the
// re-selection cascade.
type InstallmentCalculator interface {
	Calculate(ctx context.Context, req *domain.RemoteCalculationRequest) (*domain.RemoteCalculationResponse, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
