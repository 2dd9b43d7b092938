package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowak/carmarket-financing-go/internal/domain"
	"github.com/knowak/carmarket-financing-go/internal/engine"
)

func fp(v float64) *float64 { return &v }

func testCatalog() *domain.Catalog {
	return &domain.Catalog{Products: []domain.FinancingProduct{
		{
			ID: "cred-bank-a", Category: domain.CategoryCredit, Provider: "BANK_A",
			Currency: "PLN", ReferenceRate: 5, Margin: 2,
			MinAmount: fp(20_000), MaxAmount: fp(150_000),
			MinInstallments: 12, MaxInstallments: 84, MaxInitialPayment: 50,
			Priority: 10,
		},
		{
			ID: "cred-bank-b", Category: domain.CategoryCredit, Provider: "BANK_B",
			Currency: "PLN", ReferenceRate: 5, Margin: 3,
			MinAmount: fp(50_000), MaxAmount: fp(500_000),
			MinInstallments: 24, MaxInstallments: 96, MaxInitialPayment: 40,
			Priority: 5,
		},
		{
			ID: "cred-own", Category: domain.CategoryCredit, Provider: domain.ProviderOwn,
			Currency: "PLN", ReferenceRate: 5, Margin: 4, Commission: 2,
			MinAmount: fp(10_000), MaxAmount: fp(200_000),
			MinInstallments: 12, MaxInstallments: 84, MaxInitialPayment: 60,
			Priority: 10, IsDefault: true,
		},
		{
			ID: "lease-vehis", Category: domain.CategoryLeasing, Provider: domain.ProviderVehis,
			Currency: "PLN", ReferenceRate: 6, Margin: 2,
			MinAmount: fp(40_000), MaxAmount: fp(300_000),
			MinInstallments: 24, MaxInstallments: 60, MaxInitialPayment: 45,
			HasBalloonPayment: true, MaxFinalPayment: 40,
			Priority: 8, IsDefault: true,
		},
	}}
}

func TestSelectProduct_Deterministic(t *testing.T) {
	catalog := testCatalog()
	failed := map[string]bool{}

	first := engine.SelectProduct(catalog, domain.CategoryCredit, 100_000, failed)
	require.NotNil(t, first)

	for i := 0; i < 20; i++ {
		again := engine.SelectProduct(catalog, domain.CategoryCredit, 100_000, failed)
		require.NotNil(t, again)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestSelectProduct_RespectsAmountBounds(t *testing.T) {
	catalog := testCatalog()

	// 30k: BANK_B's floor is 50k, so it must never win.
	p := engine.SelectProduct(catalog, domain.CategoryCredit, 30_000, nil)
	require.NotNil(t, p)
	assert.NotEqual(t, "cred-bank-b", p.ID)
	assert.True(t, p.AmountEligible(30_000))
}

func TestSelectProduct_OwnLosesTies(t *testing.T) {
	// cred-own has IsDefault=true so it outranks BANK_A here; strip the
	// flag to make the tie exact and verify the partner product wins.
	catalog := testCatalog()
	for i := range catalog.Products {
		catalog.Products[i].IsDefault = false
	}

	p := engine.SelectProduct(catalog, domain.CategoryCredit, 100_000, nil)
	require.NotNil(t, p)
	assert.Equal(t, "cred-bank-a", p.ID, "partner product should beat OWN on equal priority")
}

func TestSelectProduct_PriorityWins(t *testing.T) {
	catalog := testCatalog()

	// At 200k BANK_A (priority 10) is out of bracket; BANK_B (priority 5)
	// and OWN (priority 10) remain. OWN wins on priority despite the
	// OWN-last tie-break.
	p := engine.SelectProduct(catalog, domain.CategoryCredit, 200_000, nil)
	require.NotNil(t, p)
	assert.Equal(t, "cred-own", p.ID)
}

func TestSelectProduct_SkipsFailedProducts(t *testing.T) {
	catalog := testCatalog()
	failed := map[string]bool{"cred-own": true, "cred-bank-a": true}

	p := engine.SelectProduct(catalog, domain.CategoryCredit, 100_000, failed)
	require.NotNil(t, p)
	assert.Equal(t, "cred-bank-b", p.ID)
}

func TestSelectProduct_FallbackIgnoresAmountBounds(t *testing.T) {
	catalog := testCatalog()

	// 1M is outside every credit bracket; the OWN product still answers.
	p := engine.SelectProduct(catalog, domain.CategoryCredit, 1_000_000, nil)
	require.NotNil(t, p)
	assert.Equal(t, "cred-own", p.ID)
	assert.False(t, p.AmountEligible(1_000_000))
}

func TestSelectProduct_FallbackPrefersDefault(t *testing.T) {
	catalog := &domain.Catalog{Products: []domain.FinancingProduct{
		{ID: "own-1", Category: domain.CategoryRent, Provider: domain.ProviderOwn,
			MinAmount: fp(900_000), MaxAmount: fp(999_999), MinInstallments: 12, MaxInstallments: 48},
		{ID: "own-2", Category: domain.CategoryRent, Provider: domain.ProviderOwn,
			MinAmount: fp(900_000), MaxAmount: fp(999_999), MinInstallments: 12, MaxInstallments: 48, IsDefault: true},
	}}

	p := engine.SelectProduct(catalog, domain.CategoryRent, 50_000, nil)
	require.NotNil(t, p)
	assert.Equal(t, "own-2", p.ID)
}

func TestSelectProduct_NoOwnNoMatch(t *testing.T) {
	catalog := testCatalog()

	// Leasing has a single remote product; once it fails there is no OWN
	// fallback in the category.
	p := engine.SelectProduct(catalog, domain.CategoryLeasing, 100_000, map[string]bool{"lease-vehis": true})
	assert.Nil(t, p)
}

func TestSelectProduct_EmptyCategory(t *testing.T) {
	p := engine.SelectProduct(testCatalog(), domain.CategoryRent, 100_000, nil)
	assert.Nil(t, p)
}
