package engine

import (
	"math"

	"github.com/knowak/carmarket-financing-go/internal/domain"
)

// Breakdown is the local calculation result for an OWN product.
type Breakdown struct {
	InitialPaymentAmount float64
	FinalPaymentAmount   float64
	AmountToFinance      float64
	Installment          float64
	CommissionAmount     float64
	AnnualRate           float64
}

// InitialPaymentAmount is the down payment in currency units, rounded
// to whole units the way the storefront displays it.
func InitialPaymentAmount(price, initialPct float64) float64 {
	return math.Round(price * initialPct / 100)
}

// FinalPaymentAmount is the balloon payment in currency units.
func FinalPaymentAmount(price, finalPct float64) float64 {
	return math.Round(price * finalPct / 100)
}

// AmountToFinance is the financed principal: price minus down payment.
func AmountToFinance(price, initialPct float64) float64 {
	return price - InitialPaymentAmount(price, initialPct)
}

// ComputeInstallment computes the monthly payment of an OWN product
// using the amortizing-annuity formula with the terminal balloon
// discounted back to present value:
//
//	r    = (referenceRate + margin) / 100 / 12
//	pow  = (1 + r)^months
//	inst = (principal*r - balloon*r/pow) / (1 - 1/pow)
//
// A zero rate degenerates to a linear split of principal minus balloon.
// months is assumed >= 1; slider bounds keep it there by construction.
func ComputeInstallment(product *domain.FinancingProduct, price float64, months int, initialPct, finalPct float64) Breakdown {
	initialAmount := InitialPaymentAmount(price, initialPct)
	finalAmount := FinalPaymentAmount(price, finalPct)
	principal := price - initialAmount

	monthlyRate := product.AnnualRate() / 100 / 12

	var installment float64
	if monthlyRate == 0 {
		installment = (principal - finalAmount) / float64(months)
	} else {
		pow := math.Pow(1+monthlyRate, float64(months))
		installment = (principal*monthlyRate - finalAmount*monthlyRate/pow) / (1 - 1/pow)
	}

	return Breakdown{
		InitialPaymentAmount: initialAmount,
		FinalPaymentAmount:   finalAmount,
		AmountToFinance:      principal,
		Installment:          round2(installment),
		CommissionAmount:     round2(principal * product.Commission / 100),
		AnnualRate:           product.AnnualRate(),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
