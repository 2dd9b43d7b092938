// Package engine holds the financing core: product selection,
// installment calculation and parameter defaulting. Everything here is
// pure (no I/O, no clocks) so the service layer can re-run it on every
// state change the way the storefront re-renders.
package engine

import (
	"sort"

	"github.com/knowak/carmarket-financing-go/internal/domain"
)

// SelectProduct picks the single best-matching product for the given
// category and amount to finance, skipping products that already failed
// a remote calculation this session.
//
// Eligible products are ranked by Priority (higher first), then
// IsDefault, then provider stability: among otherwise equal candidates
// a partner product beats the in-house one, keeping OWN as the safety
// net rather than the first choice.
//
// When nothing matches the amount bracket, the catalog is re-scanned
// ignoring amount bounds for an OWN product in the category (preferring
// IsDefault). The displayed installment can then be for an amount the
// bracket doesn't actually support; the storefront keeps showing an
// indicative number on purpose. Returns nil only when the category has
// no OWN product at all.
func SelectProduct(catalog *domain.Catalog, category domain.Category, amountToFinance float64, failedIDs map[string]bool) *domain.FinancingProduct {
	eligible := make([]domain.FinancingProduct, 0, len(catalog.Products))
	for _, p := range catalog.Products {
		if p.Category != category || failedIDs[p.ID] {
			continue
		}
		if !p.AmountEligible(amountToFinance) {
			continue
		}
		eligible = append(eligible, p)
	}

	if len(eligible) > 0 {
		sort.SliceStable(eligible, func(i, j int) bool {
			a, b := &eligible[i], &eligible[j]
			if a.Priority != b.Priority {
				return a.Priority > b.Priority
			}
			if a.IsDefault != b.IsDefault {
				return a.IsDefault
			}
			if a.IsOwn() != b.IsOwn() {
				return !a.IsOwn()
			}
			return false
		})
		winner := eligible[0]
		return &winner
	}

	return fallbackOwn(catalog, category)
}

// fallbackOwn returns the in-house product for a category, ignoring
// amount bounds. Default products win; otherwise the first OWN product
// in catalog order.
func fallbackOwn(catalog *domain.Catalog, category domain.Category) *domain.FinancingProduct {
	var candidate *domain.FinancingProduct
	for i := range catalog.Products {
		p := &catalog.Products[i]
		if p.Category != category || !p.IsOwn() {
			continue
		}
		if p.IsDefault {
			out := *p
			return &out
		}
		if candidate == nil {
			candidate = p
		}
	}
	if candidate == nil {
		return nil
	}
	out := *candidate
	return &out
}
