package engine

import (
	"github.com/shopspring/decimal"

	"github.com/knowak/carmarket-financing-go/internal/domain"
)

// Schedule expands an OWN product's installment into a month-by-month
// amortization table. Monetary amounts use decimal arithmetic with the
// last period adjusted for rounding drift, so the balance lands exactly
// on the balloon (or zero when there is none).
func Schedule(product *domain.FinancingProduct, price float64, months int, initialPct, finalPct float64) []domain.ScheduleEntry {
	if months <= 0 {
		return nil
	}

	b := ComputeInstallment(product, price, months, initialPct, finalPct)

	remaining := decimal.NewFromFloat(b.AmountToFinance)
	balloon := decimal.NewFromFloat(b.FinalPaymentAmount)
	payment := decimal.NewFromFloat(b.Installment)
	monthlyRate := decimal.NewFromFloat(product.AnnualRate() / 100 / 12)

	entries := make([]domain.ScheduleEntry, 0, months)
	for period := 1; period <= months; period++ {
		interest := remaining.Mul(monthlyRate).Round(2)
		principal := payment.Sub(interest)
		total := payment

		// Last period: absorb rounding so the balance reaches the
		// balloon exactly.
		if period == months {
			principal = remaining.Sub(balloon)
			total = principal.Add(interest)
		}

		remaining = remaining.Sub(principal)
		if remaining.LessThan(decimal.Zero) {
			remaining = decimal.Zero
		}

		entries = append(entries, domain.ScheduleEntry{
			Period:           period,
			Payment:          total.Round(2).InexactFloat64(),
			Principal:        principal.Round(2).InexactFloat64(),
			Interest:         interest.InexactFloat64(),
			RemainingBalance: remaining.Round(2).InexactFloat64(),
		})
	}

	return entries
}
