package domain

// ============================================================
// Financing Product Catalog
// ============================================================

// Category groups financing products by contract type.
type Category string

const (
	CategoryCredit  Category = "CREDIT"
	CategoryLeasing Category = "LEASING"
	CategoryRent    Category = "RENT"
)

// Categories lists every product category in display order.
var Categories = []Category{CategoryCredit, CategoryLeasing, CategoryRent}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryCredit, CategoryLeasing, CategoryRent:
		return true
	}
	return false
}

// ProviderOwn is the distinguished provider whose installments are
// computed locally. Every other provider value denotes a partner bank
// reached through the remote calculation API.
const ProviderOwn = "OWN"

// ProviderVehis carries a non-zero floor on the balloon percentage.
const ProviderVehis = "VEHIS"

// FinancingProduct is one catalog entry. The catalog is owned by the
// back office and read-only here.
type FinancingProduct struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Category Category `json:"category"`
	Provider string   `json:"provider"`
	Currency string   `json:"currency"`

	// Annual rate components, in percent. annualRate = reference + margin.
	ReferenceRate float64 `json:"referenceRate"`
	Margin        float64 `json:"margin"`
	// Commission on the financed amount, percent. Informational for OWN only.
	Commission float64 `json:"commission"`

	// Eligibility bounds on the amount to finance. nil = unbounded.
	MinAmount *float64 `json:"minAmount,omitempty"`
	MaxAmount *float64 `json:"maxAmount,omitempty"`

	MinInstallments   int     `json:"minInstallments"`
	MaxInstallments   int     `json:"maxInstallments"`
	MaxInitialPayment float64 `json:"maxInitialPayment"`
	HasBalloonPayment bool    `json:"hasBalloonPayment"`
	MaxFinalPayment   float64 `json:"maxFinalPayment"`

	Priority  int  `json:"priority"`
	IsDefault bool `json:"isDefault"`
}

// IsOwn reports whether the product is computed in-house.
func (p *FinancingProduct) IsOwn() bool {
	return p.Provider == ProviderOwn
}

// AnnualRate is the nominal annual percentage rate of the product.
func (p *FinancingProduct) AnnualRate() float64 {
	return p.ReferenceRate + p.Margin
}

// AmountEligible reports whether amount falls inside the product's
// [MinAmount, MaxAmount] bracket. Unset bounds are open-ended.
func (p *FinancingProduct) AmountEligible(amount float64) bool {
	if p.MinAmount != nil && amount < *p.MinAmount {
		return false
	}
	if p.MaxAmount != nil && amount > *p.MaxAmount {
		return false
	}
	return true
}

// Catalog wraps the product list as returned by the catalog API.
type Catalog struct {
	Products []FinancingProduct `json:"products"`
}

// ByCategory returns the products of a single category, preserving
// catalog order.
func (c *Catalog) ByCategory(cat Category) []FinancingProduct {
	out := make([]FinancingProduct, 0, len(c.Products))
	for _, p := range c.Products {
		if p.Category == cat {
			out = append(out, p)
		}
	}
	return out
}
