package engine_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/knowak/carmarket-financing-go/internal/domain"
	"github.com/knowak/carmarket-financing-go/internal/engine"
)

func ownProduct(referenceRate, margin float64) *domain.FinancingProduct {
	return &domain.FinancingProduct{
		ID: "own-test", Category: domain.CategoryCredit, Provider: domain.ProviderOwn,
		Currency: "PLN", ReferenceRate: referenceRate, Margin: margin, Commission: 2,
		MinInstallments: 12, MaxInstallments: 84, MaxInitialPayment: 50,
	}
}

func TestComputeInstallment_StandardAnnuity(t *testing.T) {
	// 100k vehicle, 10% down, 7% annual, 36 months, no balloon.
	b := engine.ComputeInstallment(ownProduct(5, 2), 100_000, 36, 10, 0)

	assert.Equal(t, 10_000.0, b.InitialPaymentAmount)
	assert.Equal(t, 90_000.0, b.AmountToFinance)
	assert.Equal(t, 7.0, b.AnnualRate)

	// Closed form: P*r / (1 - (1+r)^-n)
	r := 0.07 / 12
	want := 90_000 * r / (1 - math.Pow(1+r, -36))
	assert.InDelta(t, want, b.Installment, 0.01)
	assert.InDelta(t, 2778.95, b.Installment, 0.5)
}

func TestComputeInstallment_ZeroRateLinear(t *testing.T) {
	b := engine.ComputeInstallment(ownProduct(0, 0), 120_000, 40, 0, 10)

	// (120000 - 12000) / 40, exactly.
	assert.Equal(t, 2700.0, b.Installment)
}

func TestComputeInstallment_BalloonReducesInstallment(t *testing.T) {
	p := ownProduct(5, 2)

	prev := engine.ComputeInstallment(p, 100_000, 36, 10, 0).Installment
	for _, finalPct := range []float64{10, 20, 30, 40} {
		cur := engine.ComputeInstallment(p, 100_000, 36, 10, finalPct).Installment
		assert.Less(t, cur, prev, "finalPct=%v should lower the installment", finalPct)
		prev = cur
	}
}

func TestComputeInstallment_BalloonDiscountedNotSubtracted(t *testing.T) {
	// With a balloon the installment stays above the rate-free naive
	// split but below the no-balloon annuity.
	p := ownProduct(5, 2)
	withBalloon := engine.ComputeInstallment(p, 100_000, 36, 10, 20)

	naive := (90_000.0 - 20_000.0) / 36
	noBalloon := engine.ComputeInstallment(p, 100_000, 36, 10, 0).Installment
	assert.Greater(t, withBalloon.Installment, naive)
	assert.Less(t, withBalloon.Installment, noBalloon)
	assert.Equal(t, 20_000.0, withBalloon.FinalPaymentAmount)
}

func TestComputeInstallment_CommissionInformational(t *testing.T) {
	b := engine.ComputeInstallment(ownProduct(5, 2), 100_000, 36, 10, 0)

	// 2% of the financed 90k; not folded into the installment.
	assert.Equal(t, 1800.0, b.CommissionAmount)

	noCommission := *ownProduct(5, 2)
	noCommission.Commission = 0
	b2 := engine.ComputeInstallment(&noCommission, 100_000, 36, 10, 0)
	assert.Equal(t, b.Installment, b2.Installment)
}

func TestComputeInstallment_RoundsPaymentAmounts(t *testing.T) {
	// 33.33% of 99999 is not a whole unit; amounts are rounded.
	b := engine.ComputeInstallment(ownProduct(5, 2), 99_999, 36, 33.33, 0)

	assert.Equal(t, math.Round(99_999*33.33/100), b.InitialPaymentAmount)
	assert.Equal(t, 99_999-b.InitialPaymentAmount, b.AmountToFinance)
}
